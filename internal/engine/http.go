package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aiist007/JSpeak/internal/audio"
)

// HTTPEngine talks to a local inference server over JSON/HTTP. It implements
// Engine; wrap it in Serialized before sharing. Requests carry no timeout:
// callers bound latency by limiting the audio window they submit.
type HTTPEngine struct {
	endpoint   string
	httpClient *http.Client
	model      string

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
}

// loadRequest is the body of POST /load
type loadRequest struct {
	Model string `json:"model"`
}

// transcribeRequest is the body of POST /transcribe
type transcribeRequest struct {
	Model        string `json:"model"`
	Language     string `json:"language,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	SampleRateHz int    `json:"sample_rate_hz"`
	AudioB64     string `json:"audio_b64"`
}

// transcribeResponse is the body returned by POST /transcribe
type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Stats represents engine client statistics
type Stats struct {
	TotalRequests   uint64 `json:"total_requests"`
	SuccessRequests uint64 `json:"success_requests"`
	FailedRequests  uint64 `json:"failed_requests"`
}

// NewHTTPEngine creates an engine client for the given base endpoint
func NewHTTPEngine(endpoint string) (*HTTPEngine, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("engine endpoint cannot be empty")
	}
	return &HTTPEngine{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
	}, nil
}

// EnsureLoaded asks the inference server to load model. On failure the
// previously loaded model stays in place; the next stream_start may retry.
func (e *HTTPEngine) EnsureLoaded(ctx context.Context, model string) error {
	if model == "" {
		return fmt.Errorf("missing model")
	}
	if e.model == model {
		return nil
	}

	body, err := json.Marshal(loadRequest{Model: model})
	if err != nil {
		return fmt.Errorf("failed to encode load request: %w", err)
	}

	resp, err := e.post(ctx, "/load", body)
	if err != nil {
		return fmt.Errorf("model load failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model load failed: engine returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	e.model = model
	return nil
}

// Transcribe sends the audio window to the inference server and returns the
// raw hypothesis text.
func (e *HTTPEngine) Transcribe(ctx context.Context, samples []float32, sampleRateHz int, language, prompt string) (string, error) {
	if e.model == "" {
		return "", ErrNotLoaded
	}
	if sampleRateHz != 16000 {
		return "", fmt.Errorf("%w: %d (only 16000Hz supported)", ErrUnsupportedSampleRate, sampleRateHz)
	}

	e.totalRequests++

	body, err := json.Marshal(transcribeRequest{
		Model:        e.model,
		Language:     language,
		Prompt:       prompt,
		SampleRateHz: sampleRateHz,
		AudioB64:     audio.EncodePCM16Base64(samples),
	})
	if err != nil {
		e.failedRequests++
		return "", fmt.Errorf("failed to encode transcribe request: %w", err)
	}

	resp, err := e.post(ctx, "/transcribe", body)
	if err != nil {
		e.failedRequests++
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.failedRequests++
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription failed: engine returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		e.failedRequests++
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	if out.Error != "" {
		e.failedRequests++
		return "", fmt.Errorf("transcription failed: %s", out.Error)
	}

	e.successRequests++
	return strings.TrimSpace(out.Text), nil
}

// Ping probes the inference server, for readiness checks
func (e *HTTPEngine) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine returned %d", resp.StatusCode)
	}
	return nil
}

// GetStats returns request counters
func (e *HTTPEngine) GetStats() Stats {
	return Stats{
		TotalRequests:   e.totalRequests,
		SuccessRequests: e.successRequests,
		FailedRequests:  e.failedRequests,
	}
}

func (e *HTTPEngine) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return e.httpClient.Do(req)
}
