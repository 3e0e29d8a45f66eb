package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiist007/JSpeak/internal/command"
	"github.com/aiist007/JSpeak/internal/config"
	"github.com/aiist007/JSpeak/internal/engine"
	"github.com/aiist007/JSpeak/internal/lexicon"
	"github.com/aiist007/JSpeak/internal/observability"
	"github.com/aiist007/JSpeak/internal/server"
	"github.com/aiist007/JSpeak/internal/service"
	"github.com/aiist007/JSpeak/internal/stream"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger. Logs go to stderr: stdout carries the
	// response stream.
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("engine_endpoint", cfg.EngineEndpoint).
		Str("default_model", cfg.DefaultModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Speech service starting")

	// Transcription engine: HTTP inference client behind a global lock so
	// concurrent sessions never overlap on the model.
	httpEngine, err := engine.NewHTTPEngine(cfg.EngineEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create engine client")
	}
	eng := engine.NewSerialized(httpEngine)

	// Spoken command table, with optional user-defined phrases
	commands := command.NewInterpreter()
	if cfg.CommandsPath != "" {
		if err := commands.LoadCustomFile(cfg.CommandsPath); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.CommandsPath).Msg("Failed to load commands file")
		}
		logger.Info().Str("path", cfg.CommandsPath).Msg("Loaded user commands")
	}

	// User lexicon for vocabulary personalization
	var lex *lexicon.Lexicon
	if path := cfg.ResolveLexiconPath(); path != "" {
		lex, err = lexicon.Open(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Lexicon unavailable, continuing without personalization")
		} else {
			logger.Info().Str("path", path).Msg("User lexicon loaded")
		}
	}

	registry := stream.NewRegistry(time.Duration(cfg.SessionTTLSeconds) * time.Second)
	defer registry.Close()

	svc := service.New(cfg, eng, registry, commands, lex)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Optional HTTP listener: WebSocket transport, health and metrics
	var httpServer *http.Server
	if cfg.Port != "" {
		httpServer = server.NewHTTPServer(cfg, server.NewRouter(cfg, svc, httpEngine))
		go func() {
			logger.Info().
				Str("port", cfg.Port).
				Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws", cfg.Port)).
				Msg("HTTP listener starting")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal().Err(err).Msg("HTTP listener failed")
			}
		}()
	}

	// Primary transport: one JSON request per stdin line
	stdioDone := make(chan error, 1)
	go func() {
		stdioDone <- server.NewStdioServer(svc, os.Stdin, os.Stdout).Run(ctx)
	}()

	select {
	case err := <-stdioDone:
		if err != nil {
			logger.Error().Err(err).Msg("Stdio transport failed")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP listener forced to shut down")
		}
	}

	// Flush whatever the clients left behind.
	if n := registry.Count(); n > 0 {
		logger.Info().Int("sessions", n).Msg("Finalizing live sessions")
		svc.FinalizeAll(context.Background())
	}

	logger.Info().Msg("Speech service exited")
}
