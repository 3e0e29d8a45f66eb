package engine

import (
	"context"
	"sync"
)

// Serialized wraps an Engine in a single critical section. The underlying
// engine is shared by every session and is not assumed safe for concurrent
// inference, so all loads and transcriptions across all sessions take the
// same lock. Model loading is memoized by identifier.
type Serialized struct {
	mu          sync.Mutex
	inner       Engine
	loadedModel string
}

// NewSerialized wraps inner with global serialization
func NewSerialized(inner Engine) *Serialized {
	return &Serialized{inner: inner}
}

// EnsureLoaded loads model unless it is already the loaded one. A load
// failure leaves the previously loaded model in place: sessions already
// serving on it keep transcribing, and a later request may retry the load.
func (s *Serialized) EnsureLoaded(ctx context.Context, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadedModel == model {
		return nil
	}
	if err := s.inner.EnsureLoaded(ctx, model); err != nil {
		return err
	}
	s.loadedModel = model
	return nil
}

// Transcribe delegates under the global lock
func (s *Serialized) Transcribe(ctx context.Context, samples []float32, sampleRateHz int, language, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadedModel == "" {
		return "", ErrNotLoaded
	}
	return s.inner.Transcribe(ctx, samples, sampleRateHz, language, prompt)
}

// LoadedModel returns the currently loaded model identifier, or ""
func (s *Serialized) LoadedModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedModel
}
