package inventory

import (
	"errors"

	"hardware-manager/core/client"
	"hardware-manager/core/reconcile"
	"hardware-manager/core/storage"
	"hardware-manager/core/utils"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a logged-in operator.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrSessionExpired is returned when the remote service rejected the token.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrMissingName is returned when a project is created without a name.
	ErrMissingName = errors.New("project name is required")
	// ErrStorageDisabled is returned by snapshot operations without object storage.
	ErrStorageDisabled = errors.New("snapshot storage is not configured")
	// ErrForeignSnapshot is returned for snapshot keys outside the operator's folder.
	ErrForeignSnapshot = errors.New("snapshot belongs to another user")
)

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrSessionExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrMissingName), errors.Is(err, utils.ErrNotInteger), reconcile.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForeignSnapshot):
		return fiber.StatusForbidden
	case storage.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrRowBusy):
		return fiber.StatusConflict
	case errors.Is(err, ErrStorageDisabled), client.IsUnreachable(err):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, reconcile.ErrInvalidConfirmation):
		return fiber.StatusBadGateway
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
