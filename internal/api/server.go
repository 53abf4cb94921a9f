// Package api exposes the service over HTTP. Handlers are thin: they parse
// the request, call into the core packages, and map errors onto status
// codes; every invariant lives below this layer.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praevita/praevita/internal/metrics"
)

// Server wraps the HTTP server and its lifecycle helpers.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
}

// NewServer constructs an HTTP server bound to the configured address.
func NewServer(addr string, handlers *Handlers, registry *prometheus.Registry) (*Server, error) {
	if err := metrics.Register(registry); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", handlers.Upload)
	mux.HandleFunc("POST /predict", handlers.Predict)
	mux.HandleFunc("GET /records", handlers.ListRecords)
	mux.HandleFunc("GET /report", handlers.ComprehensiveReport)
	mux.HandleFunc("POST /report/single", handlers.SingleReport)
	mux.HandleFunc("GET /healthz", handlers.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		handlers: handlers,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           logRequests(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start serves requests until Shutdown is invoked.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown attempts a graceful shutdown within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// logRequests logs one line per request with method, path, and duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
