// Package api serves the DDL parser over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tordrt/ddlschema/internal/config"
	"github.com/tordrt/ddlschema/internal/ddl"
)

const readHeaderTimeout = 10 * time.Second

// Server holds the HTTP handlers and their dependencies
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	extractor *ddl.Extractor
	upgrader  websocket.Upgrader
}

// NewServer creates a server for cfg. A nil logger disables logging.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		cfg:       cfg,
		logger:    logger,
		extractor: ddl.NewExtractor(logger),
		upgrader:  newUpgrader(cfg.AllowedOrigins),
	}
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /parse-sql", s.handleParseSQL)
	mux.HandleFunc("POST /parse-text", s.handleParseText)
	mux.HandleFunc("GET /ws/parse", s.handleWebSocket)

	var handler http.Handler = mux
	handler = s.accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(s.cfg.AllowedOrigins, handler)
	return handler
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully within the configured timeout
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
