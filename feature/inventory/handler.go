package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"hardware-manager/core/client"
	"hardware-manager/core/logger"
	"hardware-manager/core/models"
	"hardware-manager/core/reconcile"
	"hardware-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the inventory console.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the inventory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/inventory")
	group.Get("/hardware", h.HandleListHardware)
	group.Post("/hardware/:name/checkout", h.HandleCheckOut)
	group.Post("/hardware/:name/checkin", h.HandleCheckIn)
	group.Get("/projects", h.HandleListProjects)
	group.Post("/projects", h.HandleAddProject)
	group.Post("/projects/:id/toggle", h.HandleToggle)
	group.Post("/refresh", h.HandleRefresh)
	group.Get("/audit", h.HandleAudit)
	group.Get("/rows/*", h.HandleRow)
	group.Post("/snapshots", h.HandleExportSnapshot)
	group.Get("/snapshots", h.HandleListSnapshots)
	group.Get("/snapshots/*", h.HandleGetSnapshot)
	group.Delete("/snapshots/*", h.HandleDeleteSnapshot)
}

type hardwareRow struct {
	models.HardwareSet
	State reconcile.RowState `json:"state"`
}

type checkBody struct {
	Amount    any    `json:"amount"`
	ProjectID string `json:"project_id"`
}

type projectBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error("Inventory request failed", zap.Int("status", status), zap.Error(err))
	} else {
		l.Debug("Inventory request rejected", zap.Int("status", status), zap.Error(err))
	}

	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) || client.IsUnreachable(err) {
		msg = client.Message(err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func param(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// HandleListHardware returns the hardware sets with their row state.
func (h *Handler) HandleListHardware(c *fiber.Ctx) error {
	sets := h.service.Hardware()
	rows := make([]hardwareRow, 0, len(sets))
	for _, set := range sets {
		rows = append(rows, hardwareRow{HardwareSet: set, State: h.service.Row(reconcile.HardwareRow(set.Name))})
	}
	return c.JSON(fiber.Map{"hardware": rows})
}

// HandleCheckOut checks units out to a project.
func (h *Handler) HandleCheckOut(c *fiber.Ctx) error {
	return h.handleCheck(c, h.service.CheckOut)
}

// HandleCheckIn checks units in from a project.
func (h *Handler) HandleCheckIn(c *fiber.Ctx) error {
	return h.handleCheck(c, h.service.CheckIn)
}

type checkFunc func(ctx context.Context, name string, qty int, projectID string) (*Result, error)

func (h *Handler) handleCheck(c *fiber.Ctx, fn checkFunc) error {
	var body checkBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	qty, err := utils.ToInt(body.Amount)
	if err != nil {
		return h.fail(c, fmt.Errorf("%w: %w", reconcile.ErrInvalidQuantity, err))
	}

	res, err := fn(c.Context(), param(c, "name"), qty, body.ProjectID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleListProjects returns the projects visible to the operator.
func (h *Handler) HandleListProjects(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"projects": h.service.Projects()})
}

// HandleAddProject creates a project.
func (h *Handler) HandleAddProject(c *fiber.Ctx) error {
	var body projectBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	projects, err := h.service.AddProject(c.Context(), body.Name, body.Description)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"projects": projects})
}

// HandleToggle joins or leaves a project.
func (h *Handler) HandleToggle(c *fiber.Ctx) error {
	res, err := h.service.ToggleMembership(c.Context(), param(c, "id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleRefresh re-fetches hardware sets and projects.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	if err := h.service.Load(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"hardware": h.service.Hardware(),
		"projects": h.service.Projects(),
	})
}

// HandleAudit returns the allocation drift report.
func (h *Handler) HandleAudit(c *fiber.Ctx) error {
	return c.JSON(h.service.Audit())
}

// HandleRow returns the request state of a row, e.g. /inventory/rows/hardware/HWSet1.
func (h *Handler) HandleRow(c *fiber.Ctx) error {
	key := param(c, "*")
	return c.JSON(fiber.Map{"key": key, "state": h.service.Row(key)})
}

// HandleExportSnapshot writes the current view to object storage.
func (h *Handler) HandleExportSnapshot(c *fiber.Ctx) error {
	info, err := h.service.ExportSnapshot(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

// HandleListSnapshots lists the operator's snapshots.
func (h *Handler) HandleListSnapshots(c *fiber.Ctx) error {
	snaps, err := h.service.ListSnapshots(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"snapshots": snaps})
}

// HandleGetSnapshot returns a stored snapshot, e.g. /inventory/snapshots/1700000000.json.
func (h *Handler) HandleGetSnapshot(c *fiber.Ctx) error {
	snap, err := h.service.GetSnapshot(c.Context(), param(c, "*"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(snap)
}

// HandleDeleteSnapshot removes a stored snapshot.
func (h *Handler) HandleDeleteSnapshot(c *fiber.Ctx) error {
	if err := h.service.DeleteSnapshot(c.Context(), param(c, "*")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
