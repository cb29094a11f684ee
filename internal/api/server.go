// Package api exposes the speech engine over HTTP: recognition, synthesis,
// attempt history, health, and metrics.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/config"
	"github.com/vocably/speech-engine/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// Deps are the wired services the server exposes. Attempts and DB may be nil
// when persistence is disabled.
type Deps struct {
	STT      *STTHandler
	TTS      *TTSHandler
	Attempts *AttemptsHandler
	Health   *HealthHandler
}

func NewServer(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	// Health and metrics — no auth
	r.Get("/api/v1/health", deps.Health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		deps.STT.Routes(r)
		deps.TTS.Routes(r)
		deps.Attempts.Routes(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAuth(cfg.AuthToken))
			deps.TTS.AdminRoutes(r)
		})
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
