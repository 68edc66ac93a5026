// Package httpapi serves the answer, retrieval, browsing and ingest
// operations as a JSON API.
package httpapi

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/docrag/internal/logger"
)

// Server is the HTTP API server.
type Server struct {
	ports *Ports
	app   *fiber.App
}

// NewServer creates a server and registers its routes.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		app: fiber.New(fiber.Config{
			ErrorHandler:          ErrorHandler,
			DisableStartupMessage: true,
		}),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	var (
		check = s.app.Group("/check")
		apiv1 = s.app.Group("/api/v1")
		h     = &handler{ports: s.ports}
	)

	check.Get("/healthy", h.handleHealthy)

	apiv1.Post("/answer", h.handleAnswer)
	apiv1.Post("/retrieve", h.handleRetrieve)
	apiv1.Get("/pages", h.handleListPages)
	apiv1.Get("/pages/content", h.handlePageContent)
	apiv1.Post("/ingest", h.handleIngest)
	apiv1.Get("/ingest/status", h.handleIngestStatus)
	apiv1.Get("/runs", h.handleRuns)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			logger.Warn("HTTP shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", addr)
	return s.app.Listen(addr)
}
