package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aiist007/JSpeak/internal/command"
	"github.com/aiist007/JSpeak/internal/protocol"
)

// scriptedEngine returns queued hypotheses in order, repeating the last one
// when the script runs out.
type scriptedEngine struct {
	script      []string
	calls       int
	windowSizes []int
	err         error
}

func (e *scriptedEngine) EnsureLoaded(ctx context.Context, model string) error { return nil }

func (e *scriptedEngine) Transcribe(ctx context.Context, samples []float32, sampleRateHz int, language, prompt string) (string, error) {
	e.windowSizes = append(e.windowSizes, len(samples))
	if e.err != nil {
		return "", e.err
	}
	i := e.calls
	e.calls++
	if i >= len(e.script) {
		i = len(e.script) - 1
	}
	if i < 0 {
		return "", nil
	}
	return e.script[i], nil
}

// Test tuning: 30ms frames at 16kHz (480 samples), endpoint after 90ms of
// silence, partials eligible after 60ms of speech and every 30ms of audio.
func testConfig() SessionConfig {
	return SessionConfig{
		SampleRateHz:       16000,
		Language:           "zh",
		FrameMs:            30,
		EndSilenceMs:       90,
		VADRMSThreshold:    0.012,
		PartialIntervalMs:  30,
		MaxPartialContextS: 20,
		MinPartialSpeechMs: 60,
	}
}

func speechFrame() []float32 {
	frame := make([]float32, 480)
	for i := range frame {
		frame[i] = 0.5
	}
	return frame
}

func silenceSamples(n int) []float32 {
	return make([]float32, n)
}

func newTestSession(eng *scriptedEngine) *Session {
	return NewSession("sess-1", testConfig(), eng, command.NewInterpreter())
}

func TestSession_MinSpeechGuard(t *testing.T) {
	eng := &scriptedEngine{script: []string{"你好"}}
	sess := newTestSession(eng)

	res, err := sess.Push(context.Background(), speechFrame())
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Kind != protocol.KindNone || res.Text != "" {
		t.Errorf("Expected silent result below min speech, got kind=%s text=%q", res.Kind, res.Text)
	}
	if res.SpeechFrames != "1" || res.Endpoint != "false" {
		t.Errorf("Unexpected frame counts: %+v", res)
	}
	if eng.calls != 0 {
		t.Errorf("Expected no transcription below min speech, got %d calls", eng.calls)
	}
	if len(res.Actions) != 0 || res.Actions == nil {
		t.Errorf("Expected empty non-nil actions, got %#v", res.Actions)
	}
}

func TestSession_PartialStabilization(t *testing.T) {
	eng := &scriptedEngine{script: []string{"你好，", "你好，", "你好，世界"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	// First frame is below the min-speech guard.
	if _, err := sess.Push(ctx, speechFrame()); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	// Second frame crosses the guard and the interval: first hypothesis.
	res, err := sess.Push(ctx, speechFrame())
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Kind != protocol.KindPartial {
		t.Fatalf("Expected partial, got kind=%s", res.Kind)
	}
	if res.Text != "你好，" {
		t.Errorf("Expected text '你好，', got %q", res.Text)
	}
	if res.StablePrefix != "" {
		t.Errorf("Expected no stable prefix on first sighting, got %q", res.StablePrefix)
	}
	if res.DeltaFrom != "0" || res.DeltaDelete != "0" || res.DeltaInsert != "你好，" {
		t.Errorf("Unexpected delta: from=%s delete=%s insert=%q", res.DeltaFrom, res.DeltaDelete, res.DeltaInsert)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != protocol.ActionSetComposition || res.Actions[0].Text != "你好，" {
		t.Errorf("Expected single set_composition action, got %#v", res.Actions)
	}

	// Same hypothesis again: prefix commits, but the rendered text is
	// unchanged so nothing is re-emitted.
	res, err = sess.Push(ctx, speechFrame())
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Kind != protocol.KindNone || res.Text != "" {
		t.Errorf("Expected dedupe of unchanged text, got kind=%s text=%q", res.Kind, res.Text)
	}
	if res.StablePrefix != "你好，" {
		t.Errorf("Expected committed prefix '你好，', got %q", res.StablePrefix)
	}
	if res.DeltaDelete != "0" || res.DeltaInsert != "" {
		t.Errorf("Expected empty delta on dedupe, got delete=%s insert=%q", res.DeltaDelete, res.DeltaInsert)
	}

	// Hypothesis extends past the committed prefix.
	res, err = sess.Push(ctx, speechFrame())
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Kind != protocol.KindPartial || res.Text != "你好，世界" {
		t.Errorf("Expected extended partial, got kind=%s text=%q", res.Kind, res.Text)
	}
	if res.StablePrefix != "你好，" || res.UnstableSuffix != "世界" {
		t.Errorf("Unexpected split: stable=%q unstable=%q", res.StablePrefix, res.UnstableSuffix)
	}
	// Rune indices: keep 你好， then append 世界.
	if res.DeltaFrom != "3" || res.DeltaDelete != "0" || res.DeltaInsert != "世界" {
		t.Errorf("Unexpected delta: from=%s delete=%s insert=%q", res.DeltaFrom, res.DeltaDelete, res.DeltaInsert)
	}
}

func TestSession_PrefixMonotonic(t *testing.T) {
	// A diverging shorter candidate must never shrink the committed prefix.
	eng := &scriptedEngine{script: []string{"你好，", "你好，", "早上，", "早上，"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	sess.Push(ctx, speechFrame())
	sess.Push(ctx, speechFrame()) // 你好， streak 1
	sess.Push(ctx, speechFrame()) // 你好， streak 2, committed
	sess.Push(ctx, speechFrame()) // 早上， streak 1
	res, err := sess.Push(ctx, speechFrame())
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	// 早上， reaches streak 2 but is not an extension of 你好，.
	if res.StablePrefix != "你好，" {
		t.Errorf("Committed prefix must not regress, got %q", res.StablePrefix)
	}
}

func TestSession_EndpointFinal(t *testing.T) {
	eng := &scriptedEngine{script: []string{"你好，", "你好，世界"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	sess.Push(ctx, speechFrame())
	sess.Push(ctx, speechFrame())

	// 3 silence frames reach the 90ms endpoint.
	res, err := sess.Push(ctx, silenceSamples(3*480))
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Endpoint != "true" || res.Final != "true" || res.Kind != protocol.KindFinal {
		t.Fatalf("Expected final emission, got %+v", res)
	}
	// Terminal punctuation is repaired on the finalized text.
	if res.Text != "你好，世界。" {
		t.Errorf("Expected finalized text '你好，世界。', got %q", res.Text)
	}
	if res.CommittedText != "你好，世界。" {
		t.Errorf("Expected committed_text to match, got %q", res.CommittedText)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != protocol.ActionInsert || res.Actions[0].Text != "你好，世界。" {
		t.Errorf("Expected single insert action, got %#v", res.Actions)
	}
	if res.SpeechFrames != "2" || res.SilenceFrames != "3" {
		t.Errorf("Unexpected frame counts: speech=%s silence=%s", res.SpeechFrames, res.SilenceFrames)
	}
	// prev emission was 你好，: keep it, append the rest.
	if res.DeltaFrom != "3" || res.DeltaDelete != "0" || res.DeltaInsert != "世界。" {
		t.Errorf("Unexpected delta: from=%s delete=%s insert=%q", res.DeltaFrom, res.DeltaDelete, res.DeltaInsert)
	}

	// Endpoint resets the utterance; the next push starts from scratch.
	res, err = sess.Push(ctx, speechFrame())
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.SpeechFrames != "1" || res.Kind != protocol.KindNone {
		t.Errorf("Expected fresh utterance after endpoint, got %+v", res)
	}
}

func TestSession_EndpointCommand(t *testing.T) {
	eng := &scriptedEngine{script: []string{"换行。"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	// Stay under the partial interval so the only transcription is the final.
	sess.Push(ctx, speechFrame())
	res, err := sess.Push(ctx, silenceSamples(3*480))
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Kind != protocol.KindFinal {
		t.Fatalf("Expected final, got kind=%s", res.Kind)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != protocol.ActionInsert || res.Actions[0].Text != "\n" {
		t.Errorf("Expected newline insert for 换行, got %#v", res.Actions)
	}
	// Command text is spoken, not dictated: nothing commits to the document.
	if res.CommittedText != "" {
		t.Errorf("Expected empty committed_text for command, got %q", res.CommittedText)
	}
	if res.Text != "换行。" {
		t.Errorf("Command text should carry the raw utterance, got %q", res.Text)
	}
}

func TestSession_EndpointSuppressedPhrase(t *testing.T) {
	eng := &scriptedEngine{script: []string{"请优先使用简体中文标点与表达，保留英文单词"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	sess.Push(ctx, speechFrame())
	res, err := sess.Push(ctx, silenceSamples(3*480))
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Kind != protocol.KindFinal {
		t.Fatalf("Expected final, got kind=%s", res.Kind)
	}
	if res.Actions == nil || len(res.Actions) != 0 {
		t.Errorf("Expected empty non-nil actions for suppressed phrase, got %#v", res.Actions)
	}
	if res.CommittedText != "" {
		t.Errorf("Suppressed phrase must not commit text, got %q", res.CommittedText)
	}
}

func TestSession_TranscribeErrorLeavesStateRetryable(t *testing.T) {
	eng := &scriptedEngine{err: errors.New("engine busy")}
	sess := newTestSession(eng)
	ctx := context.Background()

	sess.Push(ctx, speechFrame())
	if _, err := sess.Push(ctx, speechFrame()); err == nil {
		t.Fatal("Expected transcription error to propagate")
	}

	// The failed window was not marked consumed: the next push retries.
	eng.err = nil
	eng.script = []string{"你好"}
	res, err := sess.Push(ctx, speechFrame())
	if err != nil {
		t.Fatalf("Push() after recovery failed: %v", err)
	}
	if res.Kind != protocol.KindPartial || res.Text != "你好" {
		t.Errorf("Expected retried partial, got kind=%s text=%q", res.Kind, res.Text)
	}
}

func TestSession_FinalizeUsesBufferedAudio(t *testing.T) {
	eng := &scriptedEngine{script: []string{"hello world"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	sess.Push(ctx, speechFrame())
	res, err := sess.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if res.Text != "hello world." {
		t.Errorf("Expected 'hello world.', got %q", res.Text)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != protocol.ActionInsert {
		t.Errorf("Expected insert action, got %#v", res.Actions)
	}
}

func TestSession_FinalizeServesCachedSegment(t *testing.T) {
	eng := &scriptedEngine{script: []string{"你好"}}
	sess := newTestSession(eng)
	ctx := context.Background()

	sess.Push(ctx, speechFrame())
	res, err := sess.Push(ctx, silenceSamples(3*480))
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if res.Final != "true" {
		t.Fatal("Expected endpoint final")
	}
	calls := eng.calls

	fin, err := sess.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if eng.calls != calls {
		t.Errorf("Finalize with empty buffer must not transcribe, got %d extra calls", eng.calls-calls)
	}
	if fin.Text != "你好。" {
		t.Errorf("Expected cached finalized text, got %q", fin.Text)
	}
}

func TestSession_FinalizeEmptySession(t *testing.T) {
	eng := &scriptedEngine{}
	sess := newTestSession(eng)

	res, err := sess.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Expected empty text, got %q", res.Text)
	}
	if res.Actions == nil || len(res.Actions) != 0 {
		t.Errorf("Expected empty non-nil actions, got %#v", res.Actions)
	}
	if eng.calls != 0 {
		t.Errorf("Expected no transcription, got %d calls", eng.calls)
	}
}

func TestSession_PartialWindowBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPartialContextS = 1 // 16000-sample window
	eng := &scriptedEngine{script: []string{"text"}}
	sess := NewSession("sess-w", cfg, eng, command.NewInterpreter())
	ctx := context.Background()

	// Push well over one second of speech in one batch.
	big := make([]float32, 2*16000)
	for i := range big {
		big[i] = 0.5
	}
	if _, err := sess.Push(ctx, big); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if len(eng.windowSizes) != 1 {
		t.Fatalf("Expected one transcription, got %d", len(eng.windowSizes))
	}
	if eng.windowSizes[0] != 16000 {
		t.Errorf("Expected window capped at 16000 samples, got %d", eng.windowSizes[0])
	}
	if sess.LastActivity().After(time.Now()) {
		t.Error("LastActivity should not be in the future")
	}
}
