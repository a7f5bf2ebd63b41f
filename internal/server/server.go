// Package server exposes rankings, weights and metric values over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/internal/contract"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop signal.
const shutdownTimeout = 10 * time.Second

// Server wires the API handlers to the stores, rules and metrics.
type Server struct {
	cfg      *contract.Config
	mgr      contract.StoreManager
	rules    contract.RuleProvider
	logger   *slog.Logger
	metrics  *core.Metrics
	registry *prometheus.Registry
}

// New creates a Server with its own Prometheus registry.
func New(cfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	metrics := core.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		mgr:      mgr,
		rules:    rules,
		logger:   logger,
		metrics:  metrics,
		registry: reg,
	}, nil
}

// Handler returns the routed API with logging and throttling applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/domains", s.handleListDomains)
	mux.HandleFunc("GET /api/domains/{id}", s.handleGetDomain)
	mux.HandleFunc("GET /api/domains/{id}/ahp", s.handleGetRanking)
	mux.HandleFunc("GET /api/domains/{id}/table", s.handleGetValuesTable)
	mux.HandleFunc("GET /api/domains/{id}/category-weights", s.handleGetWeights)
	mux.HandleFunc("PUT /api/domains/{id}/category-weights", s.handlePutWeights)
	mux.HandleFunc("POST /api/metric-values", s.handlePostMetricValue)
	mux.HandleFunc("POST /api/metric-values/bulk", s.handlePostMetricValuesBulk)
	mux.HandleFunc("GET /api/rules", s.handleGetRules)

	var handler http.Handler = mux
	handler = rateLimit(s.cfg.RateLimit, s.cfg.RateBurst)(handler)
	handler = logging(s.logger)(handler)
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ServerAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ServerReadTimeout,
		WriteTimeout: s.cfg.ServerWriteTimeout,
		IdleTimeout:  s.cfg.ServerIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// requestContext carries the logger and metrics into core calls.
func (s *Server) requestContext(r *http.Request) context.Context {
	return core.WithMetrics(core.WithLogger(r.Context(), s.logger), s.metrics)
}
