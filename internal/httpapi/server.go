// # internal/httpapi/server.go

// Package httpapi serves a read-only JSON view over the current code map.
// The wire format is pinned by the embedded OpenAPI contract.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"codemap/internal/core/config"
	"codemap/internal/core/ports"
	"codemap/internal/shared/util"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const limiterTTL = 10 * time.Minute

type Server struct {
	service  ports.AnalysisService
	cfg      config.HTTP
	contract *openapi3.T
	limiter  *util.LimiterRegistry

	server   *http.Server
	listener net.Listener
}

func NewServer(service ports.AnalysisService, cfg config.HTTP) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("analysis service is required")
	}

	contract, err := LoadContract(context.Background())
	if err != nil {
		return nil, err
	}

	s := &Server{
		service:  service,
		cfg:      cfg,
		contract: contract,
	}

	if cfg.RequestsPerMinute > 0 {
		// Convert RPM to tokens per second
		rate := float64(cfg.RequestsPerMinute) / 60.0
		s.limiter = util.NewLimiterRegistry(rate, cfg.Burst, limiterTTL)
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Contract returns the validated OpenAPI document the server was built
// against.
func (s *Server) Contract() *openapi3.T {
	return s.contract
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", getOnly(s.handleHealth))
	mux.HandleFunc("/v1/summary", getOnly(s.limited(s.handleSummary)))
	mux.HandleFunc("/v1/files", getOnly(s.limited(s.handleFiles)))
	mux.HandleFunc("/v1/files/", getOnly(s.limited(s.handleFileDetail)))
	mux.HandleFunc("/v1/edges", getOnly(s.limited(s.handleEdges)))

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return withRequestID(mux)
}

// Start binds the listener and serves in the background. Bind failures
// surface here; later serve errors are logged.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	slog.Info("http api listening", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http api server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		_ = s.Stop(shutdownCtx)
	}()

	return nil
}

// Addr returns the bound address, useful when cfg.Addr used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
