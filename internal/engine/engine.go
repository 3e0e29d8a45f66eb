// Package engine is the boundary to the neural transcription engine. The
// engine itself is a black box: it maps an audio window plus language and
// prompt to text. Everything behind the Engine interface is replaceable.
package engine

import (
	"context"
	"errors"
)

var (
	// ErrNotLoaded is returned when transcription is attempted before a
	// successful model load.
	ErrNotLoaded = errors.New("model is not loaded")

	// ErrUnsupportedSampleRate is returned for sample rates the engine
	// cannot consume.
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
)

// Engine transcribes audio windows. Implementations are not assumed safe for
// concurrent calls; wrap with Serialized before sharing across sessions.
type Engine interface {
	// EnsureLoaded loads the identified model if it is not the currently
	// loaded one. A failure leaves the engine unloaded for that model;
	// later calls may retry.
	EnsureLoaded(ctx context.Context, model string) error

	// Transcribe maps normalized mono samples to text using the loaded
	// model. Calls are synchronous and carry no internal timeout.
	Transcribe(ctx context.Context, samples []float32, sampleRateHz int, language, prompt string) (string, error)
}
