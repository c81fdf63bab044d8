package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heirloomhq/heirloom/pkg/match"
	"github.com/heirloomhq/heirloom/pkg/taxonomy"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// ErrorResponse is the JSON error envelope for all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MatchResponse contains the ranked matches for a trigger against one
// passport's memories.
type MatchResponse struct {
	PassportID string        `json:"passportId"`
	Trigger    string        `json:"trigger"`
	Count      int           `json:"count"`
	Matches    []match.Match `json:"matches"`
}

// IngestRequest is the body of POST /ingest.
type IngestRequest struct {
	SourceRoot string `json:"source_root"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListTriggers returns the full situational trigger taxonomy.
func (s *Server) handleListTriggers(c *fiber.Ctx) error {
	triggers := taxonomy.AllTriggers()
	return c.JSON(map[string]any{
		"count":    len(triggers),
		"triggers": triggers,
	})
}

// handleListPassports returns summary info for all stored passports.
func (s *Server) handleListPassports(c *fiber.Ctx) error {
	infos, err := s.store.ListPassports(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list passports"})
	}

	return c.JSON(map[string]any{
		"count":     len(infos),
		"passports": infos,
	})
}

// handleExportPassport returns the full document for a passport id.
func (s *Server) handleExportPassport(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	doc, err := s.store.ExportPassport(c.Context(), id)
	if err != nil {
		if vault.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "passport not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to export passport"})
	}

	return c.JSON(doc)
}

// handleMatch handles GET /passport/:id/match requests.
// Query parameters:
//   - trigger (required): a situational trigger id from the taxonomy
//
// Memories are fetched fresh from the store on every request, and consent
// is re-validated per request when a checker is configured, so revocation
// takes effect immediately.
func (s *Server) handleMatch(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	trigger := c.Query("trigger")
	if trigger == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "trigger parameter is required"})
	}
	if !taxonomy.IsValidTrigger(trigger) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown trigger: " + trigger})
	}

	if s.consent != nil {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "access token required"})
		}

		consent, err := s.consent.ConsentStatus(c.Context(), token)
		if err != nil {
			s.logger.Warn("consent check failed",
				zap.String("passport_id", id),
				zap.Error(err),
			)
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "consent could not be verified"})
		}
		if !consent.Valid {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "consent not granted"})
		}
	}

	memories, err := s.store.ListMemories(c.Context(), id)
	if err != nil {
		if vault.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "passport not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list memories"})
	}

	matches := s.matcher.Resolve(trigger, memories)

	return c.JSON(MatchResponse{
		PassportID: id,
		Trigger:    trigger,
		Count:      len(matches),
		Matches:    matches,
	})
}

// handleIngest handles POST /ingest requests, running the full pipeline
// over the given source directory.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	if s.ingester == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "ingest is not configured: a model provider is required",
		})
	}

	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.SourceRoot == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "source_root is required"})
	}

	result, err := s.ingester.Ingest(c.Context(), req.SourceRoot)
	if err != nil {
		s.logger.Error("ingest failed",
			zap.String("source_root", req.SourceRoot),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(result)
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
