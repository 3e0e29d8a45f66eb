package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aiist007/JSpeak/internal/audio"
	"github.com/aiist007/JSpeak/internal/command"
	"github.com/aiist007/JSpeak/internal/config"
	"github.com/aiist007/JSpeak/internal/engine"
	"github.com/aiist007/JSpeak/internal/lexicon"
	"github.com/aiist007/JSpeak/internal/observability"
	"github.com/aiist007/JSpeak/internal/protocol"
	"github.com/aiist007/JSpeak/internal/stream"
)

// Service dispatches decoded protocol requests. It owns the session registry
// and the shared transcription engine; transports hand it one request at a
// time and write back whatever response it returns.
type Service struct {
	cfg      *config.Config
	engine   engine.Engine
	registry *stream.Registry
	commands *command.Interpreter
	lexicon  *lexicon.Lexicon // nil when disabled
	logger   zerolog.Logger
}

// New creates a service. lex may be nil to disable personalization.
func New(cfg *config.Config, eng engine.Engine, registry *stream.Registry, commands *command.Interpreter, lex *lexicon.Lexicon) *Service {
	return &Service{
		cfg:      cfg,
		engine:   eng,
		registry: registry,
		commands: commands,
		lexicon:  lex,
		logger:   observability.GetLogger().With().Str("component", "service").Logger(),
	}
}

// Handle processes one request and always produces a response: every failure
// becomes a protocol error on the request's id.
func (s *Service) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	reqID := req.ID
	if reqID == "" {
		reqID = uuid.New().String()
	}

	resp := s.dispatch(ctx, reqID, req)
	observability.RecordRequest(req.Method, resp.OK)
	return resp
}

func (s *Service) dispatch(ctx context.Context, reqID string, req protocol.Request) protocol.Response {
	switch req.Method {
	case "ping":
		return protocol.OK(reqID, protocol.PingResult{
			Message: "jspeak-speech-service alive",
			Time:    strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64),
		})

	case "capabilities":
		return protocol.OK(reqID, protocol.CapabilitiesResult{
			Protocol:               "jsonl-1",
			Streaming:              "true",
			AudioFormats:           "pcm_s16le_b64",
			SampleRatesHz:          "16000",
			ASR:                    s.cfg.EngineID,
			RecommendedModel:       s.cfg.DefaultModel,
			SupportsLocalModelPath: "true",
			DefaultLanguage:        s.cfg.DefaultLanguage,
			LanguageModes:          "zh,auto,en",
			MixedMode:              "true",
		})

	case "stream_start":
		return s.handleStreamStart(ctx, reqID, req.Params)

	case "stream_push":
		return s.handleStreamPush(ctx, reqID, req.Params)

	case "stream_finalize":
		return s.handleStreamFinalize(ctx, reqID, req.Params)

	default:
		return protocol.Err(reqID, fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func (s *Service) handleStreamStart(ctx context.Context, reqID string, params protocol.Params) protocol.Response {
	sessionID := params.String("session_id", "")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sampleRateHz, err := params.Int("sample_rate_hz", 16000)
	if err != nil {
		return protocol.Err(reqID, err.Error())
	}

	mixed := params.Bool("mixed", false)
	language := s.normalizeLanguage(params.String("language", ""), mixed)

	prompt := params.String("prompt", "")
	if prompt == "" {
		prompt = defaultPromptFor(language)
	}
	if s.lexicon != nil {
		prompt = s.lexicon.EnrichPrompt(prompt)
	}

	model := s.resolveModel(params)
	if model == "" {
		return protocol.Err(reqID, "Missing model")
	}

	s.logger.Info().Str("model", model).Str("session_id", sessionID).Msg("Starting stream")
	if err := s.engine.EnsureLoaded(ctx, model); err != nil {
		observability.RecordError("model_load", "service")
		return protocol.Err(reqID, fmt.Sprintf("Model load failed: %v", err))
	}

	partialIntervalMs, err := params.Int("partial_interval_ms", s.cfg.PartialIntervalMs)
	if err != nil {
		return protocol.Err(reqID, err.Error())
	}
	maxPartialContextS, err := params.Int("max_partial_context_s", s.cfg.MaxPartialContextS)
	if err != nil {
		return protocol.Err(reqID, err.Error())
	}
	minPartialSpeechMs, err := params.Int("min_partial_speech_ms", s.cfg.MinPartialSpeechMs)
	if err != nil {
		return protocol.Err(reqID, err.Error())
	}
	endSilenceMs, err := params.Int("end_silence_ms", s.cfg.EndSilenceMs)
	if err != nil {
		return protocol.Err(reqID, err.Error())
	}

	sess := stream.NewSession(sessionID, stream.SessionConfig{
		SampleRateHz:       sampleRateHz,
		Language:           language,
		Prompt:             prompt,
		FrameMs:            s.cfg.FrameMs,
		EndSilenceMs:       endSilenceMs,
		VADRMSThreshold:    s.cfg.VADRMSThreshold,
		PartialIntervalMs:  partialIntervalMs,
		MaxPartialContextS: maxPartialContextS,
		MinPartialSpeechMs: minPartialSpeechMs,
	}, s.engine, s.commands)
	s.registry.Put(sess)

	return protocol.OK(reqID, protocol.StreamStartResult{SessionID: sessionID, Model: model})
}

func (s *Service) handleStreamPush(ctx context.Context, reqID string, params protocol.Params) protocol.Response {
	sessionID := params.String("session_id", "")
	sess, ok := s.registry.Get(sessionID)
	if sessionID == "" || !ok {
		return protocol.Err(reqID, "Unknown session_id")
	}

	if params.String("format", "") != "pcm_s16le_b64" {
		return protocol.Err(reqID, "Unsupported format (expected pcm_s16le_b64)")
	}
	audioB64 := params.String("audio_b64", "")
	if audioB64 == "" {
		return protocol.Err(reqID, "Missing audio_b64")
	}

	samples, err := audio.DecodePCM16Base64(audioB64)
	if err != nil {
		observability.RecordError("audio_decode", "service")
		return protocol.Err(reqID, err.Error())
	}
	observability.RecordAudioBytes(len(samples) * 2)

	result, err := sess.Push(ctx, samples)
	if err != nil {
		observability.RecordError("transcription", "service")
		return protocol.Err(reqID, err.Error())
	}

	if s.lexicon != nil && result.CommittedText != "" {
		s.lexicon.RecordTranscript(result.CommittedText)
	}
	return protocol.OK(reqID, result)
}

func (s *Service) handleStreamFinalize(ctx context.Context, reqID string, params protocol.Params) protocol.Response {
	sessionID := params.String("session_id", "")
	sess, ok := s.registry.Remove(sessionID)
	if sessionID == "" || !ok {
		return protocol.Err(reqID, "Unknown session_id")
	}

	result, err := sess.Finalize(ctx)
	if err != nil {
		observability.RecordError("transcription", "service")
		return protocol.Err(reqID, err.Error())
	}

	if s.lexicon != nil && isDictation(result) {
		s.lexicon.RecordTranscript(result.Text)
	}
	return protocol.OK(reqID, result)
}

// FinalizeAll flushes and removes every live session, returning their final
// texts keyed by session id. Used by transports on shutdown or disconnect.
func (s *Service) FinalizeAll(ctx context.Context) map[string]string {
	out := make(map[string]string)
	for _, id := range s.registry.IDs() {
		resp := s.handleStreamFinalize(ctx, id, protocol.Params{"session_id": id})
		if fin, ok := resp.Result.(*protocol.StreamFinalizeResult); ok && resp.OK {
			out[id] = fin.Text
		}
	}
	return out
}

// isDictation reports whether a finalize result carries dictated text rather
// than a spoken command.
func isDictation(result *protocol.StreamFinalizeResult) bool {
	return result.Text != "" &&
		len(result.Actions) == 1 &&
		result.Actions[0].Type == protocol.ActionInsert &&
		result.Actions[0].Text == result.Text
}

// resolveModel picks the model for a new stream: an explicit local path wins
// over a model id, and client parameters win over configured defaults.
func (s *Service) resolveModel(params protocol.Params) string {
	if p := params.String("model_path", ""); p != "" {
		return p
	}
	if s.cfg.ModelPath != "" {
		return s.cfg.ModelPath
	}
	if m := params.String("model", ""); m != "" {
		return m
	}
	return s.cfg.DefaultModel
}

// normalizeLanguage maps client language hints onto engine codes. "" means
// let the recognizer detect the language.
func (s *Service) normalizeLanguage(language string, mixed bool) string {
	if mixed {
		return ""
	}
	if language == "" {
		return s.cfg.DefaultLanguage
	}
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "auto", "detect", "":
		return ""
	case "zh", "zh-cn", "zh-hans", "cn":
		return "zh"
	case "en", "en-us", "english":
		return "en"
	}
	return language
}

// defaultPromptFor returns the decoding prompt used when the client sends
// none. The Chinese prompt doubles as the mixed/auto default: it asks for
// Simplified Chinese punctuation while keeping English words verbatim.
func defaultPromptFor(language string) string {
	if language == "en" {
		return "Transcribe accurately. Keep punctuation and casing."
	}
	return "请优先使用简体中文标点与表达，保留英文单词/缩写原样，必要时中英文之间加空格。"
}
