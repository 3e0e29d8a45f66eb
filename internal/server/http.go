package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiist007/JSpeak/internal/config"
	"github.com/aiist007/JSpeak/internal/observability"
	"github.com/aiist007/JSpeak/internal/service"
)

// Version is stamped at build time
var Version = "dev"

// EnginePinger is the slice of the engine the readiness probe needs
type EnginePinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the HTTP surface: WebSocket transport, health and
// readiness probes, and Prometheus metrics when enabled.
func NewRouter(cfg *config.Config, svc *service.Service, pinger EnginePinger) http.Handler {
	// No Timeout middleware: the WebSocket route is long-lived.
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", observability.HealthCheckHandler("jspeak-speech-service", Version))

	checks := map[string]observability.HealthCheckFunc{}
	if pinger != nil {
		checks["engine"] = func(ctx context.Context) (bool, error) {
			if err := pinger.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	r.Get("/readyz", observability.ReadinessHandler("jspeak-speech-service", Version, checks))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/ws", HandleWS(svc))

	return r
}

// NewHTTPServer wraps the router in a server with sane timeouts. Write
// timeout stays unset: WebSocket connections are long-lived.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}
