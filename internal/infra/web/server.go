package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-content-platform/internal/infra/logging"
	"ai-content-platform/internal/infra/redis"
	"ai-content-platform/internal/infra/sched"
	"ai-content-platform/internal/usecase"
)

// generation requests allowed per principal per window
const (
	generateLimit  = 10
	generateWindow = time.Minute
)

type Server struct {
	orchestrator usecase.JobOrchestrator
	persister    usecase.ResultPersister
	auth         *AuthManager
	hub          *SessionHub        // optional assistant surface
	limiter      *redis.RateLimiter // optional
	poller       *sched.JobPoller   // optional, nudged on new jobs
	log          *zerolog.Logger
	server       *http.Server
}

func NewServer(
	orchestrator usecase.JobOrchestrator,
	persister usecase.ResultPersister,
	auth *AuthManager,
	hub *SessionHub,
	limiter *redis.RateLimiter,
	poller *sched.JobPoller,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		orchestrator: orchestrator,
		persister:    persister,
		auth:         auth,
		hub:          hub,
		limiter:      limiter,
		poller:       poller,
		log:          &srvLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/generate", s.handleGenerate)
		r.Post("/jobs/{id}/promote/blog", s.handlePromoteBlog)
		r.Post("/jobs/{id}/promote/tool", s.handlePromoteTool)

		if s.hub != nil {
			s.hub.Register(r)
		}
	})

	return r
}

// traceContext stamps chi's request ID into the logging context so every
// line emitted while serving the request carries the same trace_id.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(logging.WithTraceID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", port).Msg("admin API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
