// Package server exposes expansion over HTTP.
//
// # Endpoints
//
//	POST /v1/expand   body: graph; query: root (repeatable), format, max_nodes,
//	                  duplicates, strict. Responds text/plain with the expansion.
//	POST /v1/dot      body: graph; query: root, input (graph format),
//	                  format (dot|svg), detailed.
//	GET  /healthz     responds "ok".
//
// Errors are JSON objects {"code": "...", "error": "..."}. Input that cannot
// be decoded into a graph is a 400. A graph that decodes but cannot be fully
// expanded (missing dependency, strict self-dependency, node limit) is a 422;
// the response then also carries the lines produced before the failure in
// "partial". A body over the configured limit is a 413. Every expansion is
// bounded by the server's node cap (see [WithMaxNodes]); max_nodes can only
// lower it.
//
// Every response carries an X-Request-ID header. An incoming X-Request-ID is
// echoed; otherwise a random UUID is assigned.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/deptree/pkg/pipeline"
)

const (
	// DefaultMaxBody is the request body limit when none is configured.
	DefaultMaxBody = 10 << 20

	// DefaultMaxNodes bounds every expansion served when no limit is
	// configured. Requests may ask for less, never more.
	DefaultMaxNodes = 1_000_000
)

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	maxBody  int64
	maxNodes int
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBody limits request bodies to n bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithMaxNodes caps the lines of any expansion at n. A request's max_nodes
// above the cap, or absent, is lowered to it. Zero keeps DefaultMaxNodes.
func WithMaxNodes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// New returns a server that expands graphs with runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		logger:   logger,
		maxBody:  DefaultMaxBody,
		maxNodes: DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/expand", s.handleExpand)
		r.Post("/dot", s.handleDOT)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
