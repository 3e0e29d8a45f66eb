package stream

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiist007/JSpeak/internal/audio"
	"github.com/aiist007/JSpeak/internal/command"
	"github.com/aiist007/JSpeak/internal/engine"
	"github.com/aiist007/JSpeak/internal/observability"
	"github.com/aiist007/JSpeak/internal/protocol"
	"github.com/aiist007/JSpeak/internal/textproc"
)

// SessionConfig holds the per-session tuning accepted at stream_start
type SessionConfig struct {
	SampleRateHz       int
	Language           string // "" lets the recognizer detect
	Prompt             string
	FrameMs            int
	EndSilenceMs       int
	VADRMSThreshold    float64
	PartialIntervalMs  int
	MaxPartialContextS int
	MinPartialSpeechMs int
}

// Session is one dictation stream. It accumulates audio, detects utterance
// endpoints, emits stabilized partial hypotheses while speech is ongoing and
// a finalized, command-interpreted text at each endpoint.
//
// All methods are safe for concurrent use; a session serializes its own
// state while the engine serializes transcription globally.
type Session struct {
	ID     string
	config SessionConfig

	mu       sync.Mutex
	buffer   *audio.Accumulator
	detector *audio.EndpointDetector

	// Partial stabilization state for the current utterance
	lastEmittedText    string
	committedPrefix    string
	lastCandidate      string
	prefixStreak       int
	lastPartialSamples int

	// Text of the last finalized utterance, served by Finalize when the
	// current buffer is empty.
	segmentsText string

	createdAt    time.Time
	lastActivity time.Time

	engine   engine.Engine
	commands *command.Interpreter
	logger   zerolog.Logger
}

// NewSession creates a dictation session with the given id and configuration
func NewSession(id string, config SessionConfig, eng engine.Engine, commands *command.Interpreter) *Session {
	now := time.Now()
	return &Session{
		ID:     id,
		config: config,
		buffer: audio.NewAccumulator(),
		detector: audio.NewEndpointDetector(audio.VADConfig{
			SampleRateHz: config.SampleRateHz,
			FrameMs:      config.FrameMs,
			EndSilenceMs: config.EndSilenceMs,
			RMSThreshold: config.VADRMSThreshold,
		}),
		createdAt:    now,
		lastActivity: now,
		engine:       eng,
		commands:     commands,
		logger:       observability.WithSession(id),
	}
}

// LastActivity returns the time of the session's most recent push or start
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// resetUtterance clears all per-utterance state after an endpoint.
// segmentsText survives so Finalize can serve the last finalized text.
func (s *Session) resetUtterance() {
	s.buffer.Reset()
	s.detector.Reset()
	s.lastEmittedText = ""
	s.lastPartialSamples = 0
	s.committedPrefix = ""
	s.lastCandidate = ""
	s.prefixStreak = 0
}

// Push feeds decoded samples into the session and returns what, if anything,
// the client should render. On a transcription error the session state is
// left as it was, aside from the appended audio, so the caller may retry by
// pushing more audio.
func (s *Session) Push(ctx context.Context, samples []float32) (*protocol.StreamPushResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()

	var endpoint bool
	if len(samples) > 0 {
		s.buffer.Append(samples)
		endpoint = s.detector.PushSamples(samples)
	}

	// Counts are captured before any endpoint reset below.
	speechFrames := s.detector.SpeechFrames()
	silenceFrames := s.detector.SilenceFrames()

	result := &protocol.StreamPushResult{
		SessionID:     s.ID,
		Endpoint:      protocol.BoolString(endpoint),
		SpeechFrames:  strconv.Itoa(speechFrames),
		SilenceFrames: strconv.Itoa(silenceFrames),
		Final:         "false",
		Kind:          protocol.KindNone,
		Actions:       []protocol.Action{},
		DeltaFrom:     "0",
		DeltaDelete:   "0",
	}

	// Partial: transcribe periodically while speech is ongoing.
	if !endpoint && speechFrames > 0 {
		if s.detector.SpeechMs() < s.config.MinPartialSpeechMs {
			s.lastPartialSamples = s.buffer.Len()
			return result, nil
		}
		intervalSamples := s.config.SampleRateHz * s.config.PartialIntervalMs / 1000
		if intervalSamples > 0 && s.buffer.Len()-s.lastPartialSamples >= intervalSamples {
			window := s.buffer.Tail(s.config.MaxPartialContextS * s.config.SampleRateHz)
			started := time.Now()
			text, err := s.engine.Transcribe(ctx, window, s.config.SampleRateHz, s.config.Language, s.config.Prompt)
			observability.RecordTranscription(protocol.KindPartial, started, err)
			if err != nil {
				return nil, err
			}
			if text != "" {
				s.stabilize(text, result)
			}
			s.lastPartialSamples = s.buffer.Len()
		}
	}

	// Final: on endpoint, transcribe the full utterance and reset.
	if endpoint {
		started := time.Now()
		text, err := s.engine.Transcribe(ctx, s.buffer.Samples(), s.config.SampleRateHz, s.config.Language, s.config.Prompt)
		observability.RecordTranscription(protocol.KindFinal, started, err)
		if err != nil {
			return nil, err
		}
		text = textproc.NormalizeMixedSpacing(text)

		isCommand := false
		actions, matched := s.commands.Interpret(text)
		if matched {
			isCommand = true
		} else {
			text = textproc.ApplyTonePunctuation(text)
			actions = []protocol.Action{}
			if text != "" {
				actions = append(actions, protocol.Insert(text))
			}
		}

		delta := textproc.ComputeDelta(s.lastEmittedText, text)
		result.Text = text
		if !isCommand {
			result.CommittedText = text
		}
		result.StablePrefix = ""
		result.UnstableSuffix = ""
		result.DeltaFrom = strconv.Itoa(delta.From)
		result.DeltaDelete = strconv.Itoa(delta.DeleteCount)
		result.DeltaInsert = delta.Insert
		result.Final = "true"
		result.Kind = protocol.KindFinal
		result.Actions = actions

		if text != "" {
			s.segmentsText = text
		}
		utterance := time.Duration(s.buffer.Len()) * time.Second / time.Duration(s.config.SampleRateHz)
		observability.RecordUtterance(utterance)
		s.resetUtterance()

		s.logger.Debug().
			Str("text", text).
			Bool("command", isCommand).
			Msg("Utterance finalized")
	}

	result.Actions = protocol.ComposeActions(result.Kind, result.Text, result.Actions)
	return result, nil
}

// stabilize runs the prefix stabilizer over a fresh partial hypothesis and
// fills the partial fields of result. A boundary-aligned prefix must repeat
// on consecutive hypotheses before it commits, and the committed prefix only
// ever grows within an utterance.
func (s *Session) stabilize(text string, result *protocol.StreamPushResult) {
	candidate := textproc.BoundaryPrefix(text)
	if candidate != "" && candidate == s.lastCandidate {
		s.prefixStreak++
	} else {
		s.lastCandidate = candidate
		if candidate != "" {
			s.prefixStreak = 1
		} else {
			s.prefixStreak = 0
		}
	}

	if candidate != "" && s.prefixStreak >= 2 {
		if runeLen(candidate) > runeLen(s.committedPrefix) && strings.HasPrefix(candidate, s.committedPrefix) {
			s.committedPrefix = candidate
		}
	}

	stable := s.committedPrefix
	full := stable + runeSuffix(text, runeLen(stable))

	delta := textproc.ComputeDelta(s.lastEmittedText, full)
	result.StablePrefix = stable
	result.UnstableSuffix = runeSuffix(text, runeLen(stable))
	result.DeltaFrom = strconv.Itoa(delta.From)
	result.DeltaDelete = strconv.Itoa(delta.DeleteCount)
	result.DeltaInsert = delta.Insert

	if full != s.lastEmittedText {
		result.Text = full
		s.lastEmittedText = full
		result.Kind = protocol.KindPartial
	}
}

// Finalize flushes the session. Remaining buffered audio is transcribed;
// with an empty buffer the last finalized utterance text is served instead.
func (s *Session) Finalize(ctx context.Context) (*protocol.StreamFinalizeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := ""
	if s.buffer.Len() > 0 {
		started := time.Now()
		var err error
		text, err = s.engine.Transcribe(ctx, s.buffer.Samples(), s.config.SampleRateHz, s.config.Language, s.config.Prompt)
		observability.RecordTranscription(protocol.KindFinal, started, err)
		if err != nil {
			return nil, err
		}
	} else if s.segmentsText != "" {
		text = s.segmentsText
	}

	text = textproc.NormalizeMixedSpacing(text)
	actions, matched := s.commands.Interpret(text)
	if !matched {
		text = textproc.ApplyTonePunctuation(text)
		actions = []protocol.Action{}
		if text != "" {
			actions = append(actions, protocol.Insert(text))
		}
	}

	return &protocol.StreamFinalizeResult{
		SessionID: s.ID,
		Text:      text,
		Actions:   actions,
	}, nil
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// runeSuffix drops the first n runes of s, returning "" when s is shorter
func runeSuffix(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for idx := range s {
		if i == n {
			return s[idx:]
		}
		i++
	}
	return ""
}
