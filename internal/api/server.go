package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/vnequity/pkg/config"
	"github.com/wonny/vnequity/pkg/logger"
)

// Server serves the screening API until its context is cancelled
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	source          string
	logger          *logger.Logger
}

// New creates a server on cfg.Port. Write timeout covers XLSX exports of
// the full ticker table, so it is configured apart from the read timeout.
// Zero timeouts fall back to 15s read, 60s write and 30s shutdown.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	read := orDefault(cfg.API.ReadTimeout, 15*time.Second)
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       read,
			WriteTimeout:      orDefault(cfg.API.WriteTimeout, 60*time.Second),
			IdleTimeout:       2 * read,
		},
		shutdownTimeout: orDefault(cfg.API.ShutdownTimeout, 30*time.Second),
		source:          cfg.Data.Source,
		logger:          log,
	}
}

// Run listens and serves until ctx is done, then drains in-flight requests
// for at most the shutdown timeout
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	s.logger.WithFields(map[string]interface{}{
		"addr":   ln.Addr().String(),
		"source": s.source,
	}).Info("API server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.WithField("timeout", s.shutdownTimeout).Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-errCh
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
