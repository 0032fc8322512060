package integrity

import (
	"errors"
	"slices"

	"hardware-manager/core/logger"
	"hardware-manager/core/utils"
	"hardware-manager/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/remote", h.HandleRemoteCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/session", h.HandleSessionCheck)
}

// HandleIntegrityCheck runs every check and reports each one separately.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := fiber.Map{}

	if remote, err := h.service.CheckRemote(ctx); err != nil {
		report["remote"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["remote"] = remote
	}

	if missing, err := h.service.CheckStructure(ctx); err != nil {
		report["storage"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["storage"] = fiber.Map{"status": "ok", "missing": missing}
	}

	if schema, err := h.service.CheckSession(); err != nil {
		report["session"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["session"] = schema
	}

	return c.JSON(report)
}

// HandleRemoteCheck probes the remote inventory service.
func (h *Handler) HandleRemoteCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckRemote(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Remote check failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleStorageCheck checks and optionally fixes the snapshot bucket layout.
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := utils.ToBool(c.Query("fix"))

	missing, err := h.service.CheckStructure(c.Context())
	switch {
	case errors.Is(err, checks.ErrBucketMissing) && fix:
		// FixStructure creates the bucket too.
		missing = slices.Clone(checks.RequiredFolders)
	case errors.Is(err, errStorageDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing folders detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStructure(c.Context(), missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix structure",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleSessionCheck verifies the session table schema.
func (h *Handler) HandleSessionCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckSession()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Session schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
