package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"equipahub/internal/core/domain"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// UnprocessableEntity sends a 422 response
func UnprocessableEntity(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnprocessableEntity, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// DomainError maps an allocation error to its HTTP status and sends
// the error envelope with a stable kind tag.
func DomainError(c *fiber.Ctx, err error) error {
	status, kind := classify(err)
	return c.Status(status).JSON(Response{
		Success: false,
		Error:   err.Error(),
		Kind:    kind,
	})
}

func classify(err error) (int, string) {
	var (
		permission *domain.PermissionDeniedError
		transition *domain.InvalidTransitionError
		unavail    *domain.UnitUnavailableError
		busy       *domain.UnitBusyError
		overdue    *domain.BorrowerOverdueError
		threshold  *domain.BelowBulkThresholdError
	)
	switch {
	case errors.As(err, &permission):
		return fiber.StatusForbidden, "permission_denied"
	case errors.As(err, &transition):
		return fiber.StatusConflict, "invalid_transition"
	case errors.As(err, &unavail):
		return fiber.StatusConflict, "unit_unavailable"
	case errors.As(err, &busy):
		return fiber.StatusConflict, "unit_busy"
	case errors.As(err, &overdue):
		return fiber.StatusUnprocessableEntity, "borrower_overdue"
	case errors.As(err, &threshold):
		return fiber.StatusUnprocessableEntity, "below_bulk_threshold"
	case errors.Is(err, domain.ErrAlreadyDecided):
		return fiber.StatusConflict, "already_decided"
	case errors.Is(err, domain.ErrReasonRequired):
		return fiber.StatusUnprocessableEntity, "reason_required"
	case errors.Is(err, domain.ErrSerialExists):
		return fiber.StatusConflict, "serial_exists"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "invalid_input"
	default:
		return fiber.StatusServiceUnavailable, "store_unavailable"
	}
}
