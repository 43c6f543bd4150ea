// Package feedserver is a demo feed API. It serves a generated catalog of
// posts with feedId cursor paging so the pager can be exercised end to end.
package feedserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/metrics"
)

// Server provides the feed HTTP server.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /metrics: Prometheus metrics
//   - GET /feeds/queryHotFeedsList: Feed pages
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	config       Config
	tokens       *TokenService
	shutdownOnce sync.Once
}

// NewServer creates a new feed server over catalog.
//
// Returns an error when auth is enabled with an unusable secret.
func NewServer(config Config, catalog *Catalog, m metrics.HTTPMetrics) (*Server, error) {
	config.ApplyDefaults()

	var tokens *TokenService
	if config.Auth.Enabled {
		var err error
		tokens, err = NewTokenService(config.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
	}

	router := NewRouter(NewFeedHandler(catalog, config, m), tokens, m)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
		tokens: tokens,
	}, nil
}

// Tokens returns the token service, or nil when auth is disabled.
func (s *Server) Tokens() *TokenService {
	return s.tokens
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured port and blocks until ctx is cancelled or
// the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("feed server failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Cancellation triggers a
// graceful shutdown bounded to five seconds.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Feed server listening", "addr", ln.Addr().String(), "auth", s.tokens != nil)

		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Feed server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("feed server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Feed server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("feed server shutdown error: %w", err)
			logger.Error("Feed server shutdown error", "error", err)
		} else {
			logger.Info("Feed server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.config.Port
}
