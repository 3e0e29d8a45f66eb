package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the speech service
type Config struct {
	// HTTP listener for the WebSocket transport, health checks and metrics.
	// Empty disables the listener entirely; the stdio transport always runs.
	Port string `envconfig:"PORT" default:""`

	// Transcription engine endpoint (local inference server)
	EngineEndpoint string `envconfig:"ENGINE_ENDPOINT" default:"http://127.0.0.1:8060"`
	EngineID       string `envconfig:"ENGINE_ID" default:"mlx-whisper"`

	// Model selection. ModelPath, when set, takes precedence over any model
	// id a client sends in stream_start.
	DefaultModel string `envconfig:"DEFAULT_MODEL" default:"mlx-community/whisper-medium"`
	ModelPath    string `envconfig:"JSPEAK_MODEL_PATH" default:""`

	// Language defaults
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"zh"`

	// Audio analysis configuration
	FrameMs         int     `envconfig:"FRAME_MS" default:"30"`             // VAD frame duration
	VADRMSThreshold float64 `envconfig:"VAD_RMS_THRESHOLD" default:"0.012"` // RMS threshold on [-1,1) samples
	EndSilenceMs    int     `envconfig:"END_SILENCE_MS" default:"450"`      // Trailing silence before endpoint

	// Partial emission configuration
	PartialIntervalMs  int `envconfig:"PARTIAL_INTERVAL_MS" default:"500"`   // Minimum audio between partial passes
	MaxPartialContextS int `envconfig:"MAX_PARTIAL_CONTEXT_S" default:"20"`  // Trailing window fed to the engine
	MinPartialSpeechMs int `envconfig:"MIN_PARTIAL_SPEECH_MS" default:"300"` // Confirmed speech before first partial

	// Session lifecycle. 0 disables the idle sweep; sessions then live until
	// stream_finalize.
	SessionTTLSeconds int `envconfig:"SESSION_TTL" default:"0"`

	// User lexicon persistence. Empty picks a file under the user config dir;
	// "off" disables the lexicon.
	LexiconPath string `envconfig:"LEXICON_PATH" default:""`

	// Optional YAML file with user-defined spoken command phrases
	CommandsPath string `envconfig:"COMMANDS_PATH" default:""`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`   // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"` // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.FrameMs <= 0 {
		return nil, fmt.Errorf("FRAME_MS must be positive, got %d", cfg.FrameMs)
	}
	if cfg.EndSilenceMs <= 0 {
		return nil, fmt.Errorf("END_SILENCE_MS must be positive, got %d", cfg.EndSilenceMs)
	}
	if cfg.VADRMSThreshold <= 0 {
		return nil, fmt.Errorf("VAD_RMS_THRESHOLD must be positive, got %f", cfg.VADRMSThreshold)
	}

	return &cfg, nil
}

// ResolveLexiconPath returns the lexicon file path to use, or "" when the
// lexicon is disabled.
func (c *Config) ResolveLexiconPath() string {
	if c.LexiconPath == "off" {
		return ""
	}
	if c.LexiconPath != "" {
		return c.LexiconPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jspeak", "user_lexicon.json")
}
