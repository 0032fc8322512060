package account

import (
	"errors"

	"hardware-manager/core/client"
	"hardware-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for accounts.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the account routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/account")
	group.Post("/login", h.HandleLogin)
	group.Post("/register", h.HandleRegister)
	group.Post("/logout", h.HandleLogout)
	group.Get("/me", h.HandleMe)
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// statusFor maps an account error to an HTTP status code. Remote rejections keep
// the remote status so a bad password stays a 401.
func statusFor(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case client.IsUnreachable(err):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode
	case errors.As(err, &apiErr), errors.Is(err, ErrNoToken):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.WithRayID(h.service.logger, c).Error("Account request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": client.Message(err)})
}

func (h *Handler) parseCredentials(c *fiber.Ctx) (credentialsBody, error) {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return body, ErrMissingCredentials
	}
	return body, nil
}

// HandleLogin logs in and stores the session.
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	body, err := h.parseCredentials(c)
	if err != nil {
		return h.fail(c, err)
	}
	msg, err := h.service.Login(c.Context(), body.Username, body.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": msg, "username": h.service.session.Username()})
}

// HandleRegister creates an account.
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	body, err := h.parseCredentials(c)
	if err != nil {
		return h.fail(c, err)
	}
	msg, err := h.service.Register(c.Context(), body.Username, body.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

// HandleLogout ends the session.
func (h *Handler) HandleLogout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleMe returns the operator's profile.
func (h *Handler) HandleMe(c *fiber.Ctx) error {
	profile, err := h.service.WhoAmI(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(profile)
}
