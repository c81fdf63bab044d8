package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heirloomhq/heirloom/pkg/match"
	"github.com/heirloomhq/heirloom/pkg/pipeline"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// Ingester runs the ingest pipeline over a source directory. Satisfied by
// *pipeline.Pipeline; stubbed in tests.
type Ingester interface {
	Ingest(ctx context.Context, root string) (*pipeline.IngestResult, error)
}

// Server is the API server for querying the heirloom system
type Server struct {
	config   Config
	store    vault.Store
	consent  vault.ConsentChecker
	ingester Ingester
	matcher  *match.Matcher
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The store is injected to allow sharing with the CLI commands. consent and
// ingester may be nil; the corresponding endpoints degrade gracefully.
func NewServer(config Config, store vault.Store, consent vault.ConsentChecker, ingester Ingester, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		store:    store,
		consent:  consent,
		ingester: ingester,
		matcher:  match.NewMatcher(nil),
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/triggers", s.handleListTriggers)
	app.Get("/passports", s.handleListPassports)
	app.Get("/passport/:id/export", s.handleExportPassport)
	app.Get("/passport/:id/match", s.handleMatch)
	app.Post("/ingest", s.handleIngest)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
