// Package api provides the HTTPS server of the development provider.
//
//nolint:revive // "api" is a clear and appropriate package name
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/leapcode/leapsrp/internal/api/middleware"
	"github.com/leapcode/leapsrp/internal/config"
	"github.com/leapcode/leapsrp/internal/lifecycle"
	"github.com/leapcode/leapsrp/internal/logging"
	tlspkg "github.com/leapcode/leapsrp/internal/tls"
)

// ShutdownTimeout bounds how long in-flight requests may finish after the
// server context ends.
const ShutdownTimeout = 5 * time.Second

// Server serves the LEAP session API under the configured prefix.
type Server struct {
	httpServer *http.Server
	tlsConfig  *tls.Config
	logger     *logging.Logger
	listen     string
	mux        *http.ServeMux
	middleware []func(http.Handler) http.Handler
}

// New creates a server that mounts api under cfg.Service.APIPrefix.
func New(cfg *config.Config, api http.Handler, logger *logging.Logger) (*Server, error) {
	tlsConfig, err := tlspkg.NewServerConfig(cfg.TLS.Cert, cfg.TLS.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS config: %w", err)
	}

	mux := http.NewServeMux()
	if prefix := cfg.Service.APIPrefix; prefix != "" {
		mux.Handle("/", middleware.NotFound())
		mux.Handle(prefix+"/", http.StripPrefix(prefix, api))
	} else {
		mux.Handle("/", api)
	}

	return &Server{
		httpServer: &http.Server{
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		tlsConfig: tlsConfig,
		logger:    logger,
		listen:    cfg.Service.Listen,
		mux:       mux,
	}, nil
}

// Use adds middleware. The first one added runs innermost. Use must be
// called before Start or Serve.
func (s *Server) Use(mw ...func(http.Handler) http.Handler) {
	s.middleware = append(s.middleware, mw...)
}

// Handler returns the fully wrapped handler: added middleware, then request
// logging, then panic recovery.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	for _, mw := range s.middleware {
		h = mw(h)
	}
	h = middleware.Logging(s.logger)(h)
	return middleware.ErrorHandler(s.logger)(h)
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves HTTPS on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer.Handler = s.Handler()

	s.logger.Info("starting HTTPS server", map[string]any{
		"address": ln.Addr().String(),
	})

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(tls.NewListener(ln, s.tlsConfig)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down HTTPS server", map[string]any{
			"reason": context.Cause(ctx).Error(),
		})
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := lifecycle.GracefulShutdown(ctx, s.httpServer.Shutdown, ShutdownTimeout); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
