// Package server exposes a mind map over a read-only HTTP API.
//
// # Routes
//
//	GET /healthz                          liveness and build version
//	GET /v1/map                           the whole map as a snapshot document
//	GET /v1/map/nodes/{id}                one node with its branches
//	GET /v1/map/search?q=                 nodes whose text or notes match
//	GET /v1/map/path?from=&to=&max_depth= shortest branch path
//	GET /v1/map/layout?algorithm=         computed positions (not written back)
//	GET /v1/map/export.dot                Graphviz DOT
//	GET /v1/map/export.svg                rendered SVG
//	GET /v1/session/log                   the operation log
//	GET /v1/session/users                 users and their presence
//	GET /metrics                          Prometheus metrics, when enabled
//
// Errors are JSON objects of the form {"error": {"code": ..., "message": ...}}
// with the status derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mindweave/pkg/config"
	"github.com/matzehuels/mindweave/pkg/engine"
	"github.com/matzehuels/mindweave/pkg/layout"
	"github.com/matzehuels/mindweave/pkg/observability"
)

// Server serves one engine.
type Server struct {
	engine  *engine.Engine
	logger  *log.Logger
	layout  layout.Config
	alg     layout.Algorithm
	metrics http.Handler
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger (default discards output).
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLayout sets the algorithm and parameters used when a request does not
// name an algorithm.
func WithLayout(alg layout.Algorithm, cfg layout.Config) Option {
	return func(s *Server) {
		s.alg = alg
		s.layout = cfg
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New builds the router for eng.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		logger: log.New(io.Discard),
		layout: layout.DefaultConfig(),
		alg:    layout.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/map", func(r chi.Router) {
		r.Get("/", s.getMap)
		r.Get("/nodes/{id}", s.getNode)
		r.Get("/search", s.search)
		r.Get("/path", s.path)
		r.Get("/layout", s.getLayout)
		r.Get("/export.dot", s.export("dot"))
		r.Get("/export.svg", s.export("svg"))
	})
	r.Route("/v1/session", func(r chi.Router) {
		r.Get("/log", s.sessionLog)
		r.Get("/users", s.sessionUsers)
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
