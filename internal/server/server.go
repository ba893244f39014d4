package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/config"
	"github.com/taskhall/commenter/internal/handler"
	appmw "github.com/taskhall/commenter/internal/middleware"
)

// Server runs the local API the UI shell consumes.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	router chi.Router
	http   *http.Server
}

// New creates a new server.
func New(cfg *config.Config, log *zap.Logger, deps *Deps) *Server {
	r := chi.NewRouter()

	r.Use(appmw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(appmw.Metrics)
	r.Use(appmw.Logging(log))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/pool", deps.Pool.Get)
		r.Post("/pool/refresh", deps.Pool.Refresh)
		r.Post("/pool/more", deps.Pool.More)

		r.Post("/claims", deps.Claims.Claim)
		r.Get("/claims", deps.Claims.List)
		r.Post("/claims/refresh", deps.Claims.Refresh)
		r.Get("/claims/{recordID}", deps.Claims.Get)
		r.Post("/claims/{recordID}/submission", deps.Submission.Submit)

		r.Get("/cooldown", deps.Cooldown.Get)
		r.Get("/events", deps.Hub.ServeHTTP)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	return &Server{
		cfg:    cfg,
		log:    log,
		router: r,
		http: &http.Server{
			Addr:    addr,
			Handler: r,
		},
	}
}

// Router exposes the router, used by tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
