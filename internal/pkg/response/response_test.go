package response

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"

	"equipahub/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"permission denied", &domain.PermissionDeniedError{Action: domain.ActionCreateDirectLoan, Role: domain.RoleFaculty}, fiber.StatusForbidden, "permission_denied"},
		{"invalid transition", &domain.InvalidTransitionError{Entity: "loan", From: "active", To: "cancelled"}, fiber.StatusConflict, "invalid_transition"},
		{"unit unavailable", &domain.UnitUnavailableError{EquipmentID: 1, Status: domain.EquipmentLoaned}, fiber.StatusConflict, "unit_unavailable"},
		{"unit busy", &domain.UnitBusyError{EquipmentID: 1}, fiber.StatusConflict, "unit_busy"},
		{"borrower overdue", &domain.BorrowerOverdueError{BorrowerID: 1, Count: 2}, fiber.StatusUnprocessableEntity, "borrower_overdue"},
		{"below threshold", &domain.BelowBulkThresholdError{Quantity: 3, Threshold: 5}, fiber.StatusUnprocessableEntity, "below_bulk_threshold"},
		{"already decided", domain.ErrAlreadyDecided, fiber.StatusConflict, "already_decided"},
		{"reason required", domain.ErrReasonRequired, fiber.StatusUnprocessableEntity, "reason_required"},
		{"serial exists", domain.ErrSerialExists, fiber.StatusConflict, "serial_exists"},
		{"not found", domain.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("loading loan: %w", domain.ErrNotFound), fiber.StatusNotFound, "not_found"},
		{"invalid input", fmt.Errorf("%w: quantity required", domain.ErrInvalidInput), fiber.StatusBadRequest, "invalid_input"},
		{"unknown error", errors.New("connection reset"), fiber.StatusServiceUnavailable, "store_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := classify(tt.err)
			if status != tt.status || kind != tt.kind {
				t.Errorf("classify(%v) = %d %q, want %d %q", tt.err, status, kind, tt.status, tt.kind)
			}
		})
	}
}
