package api

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/yt-scribe/internal/archive"
	"github.com/snarg/yt-scribe/internal/backend"
	"github.com/snarg/yt-scribe/internal/config"
	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/metrics"
	"github.com/snarg/yt-scribe/internal/store"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// Deps bundles everything the router needs. Archiver and MQTT may be nil.
type Deps struct {
	Providers      map[string]backend.Provider
	DefaultService string
	Store          store.Store
	Archiver       *archive.Archiver
	Bus            *events.Bus
	MQTT           connChecker
	WebFS          fs.FS
	Version        string
	StartTime      time.Time
}

func NewServer(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      newRouter(cfg, deps, log),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func newRouter(cfg *config.Config, deps Deps, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	// Health and metrics — no auth
	health := NewHealthHandler(deps.Store, deps.MQTT, deps.Providers, deps.Version, deps.StartTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated API
	transcribe := NewTranscribeHandler(deps.Providers, deps.DefaultService, deps.Bus)
	saved := NewSavedHandler(deps.Store, deps.Archiver, deps.Bus, log)
	sse := NewSSEHandler(deps.Bus)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))

		r.Post("/api/v1/transcripts", transcribe.ServeHTTP)

		r.Get("/api/v1/saved", saved.List)
		r.Post("/api/v1/saved", saved.Create)
		r.Get("/api/v1/saved/{id}", saved.Get)
		r.Delete("/api/v1/saved/{id}", saved.Delete)

		r.Get("/api/v1/events", sse.ServeHTTP)
	})

	// Embedded UI
	if deps.WebFS != nil {
		r.Handle("/*", http.FileServer(http.FS(deps.WebFS)))
	}

	return r
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
