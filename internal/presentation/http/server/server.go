// Package server owns the HTTP listener lifecycle around the gin router.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/plateful/plateful-go/internal/application/container"
	"github.com/plateful/plateful-go/internal/presentation/http/routes"
	"github.com/plateful/plateful-go/pkg/config"
)

// Server pairs the configured http.Server with the container whose services
// back its routes, so shutdown can reason about both.
type Server struct {
	httpServer *http.Server
	container  *container.Container
}

// New builds the router from the container's services and wraps it in an
// http.Server with the configured timeouts.
func New(port string, c *container.Container) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      routes.SetupRoutes(c),
			ReadTimeout:  config.ServerReadTimeout,
			WriteTimeout: config.ServerWriteTimeout,
			IdleTimeout:  config.ServerIdleTimeout,
		},
		container: c,
	}
}

// Start blocks serving requests until the listener closes. A graceful
// shutdown is not reported as an error.
func (s *Server) Start() error {
	log.Printf("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
