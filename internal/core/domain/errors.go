package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyDecided = errors.New("request already decided")
	ErrReasonRequired = errors.New("decision reason required when rejecting")
	ErrSerialExists   = errors.New("serial number already registered")
	ErrInvalidInput   = errors.New("invalid input")
	// ErrUnknown marks an indeterminate outcome (e.g. storage timeout).
	// The caller must re-query state, never assume success or failure.
	ErrUnknown = errors.New("operation outcome unknown")
)

// PermissionDeniedError is returned when the role matrix denies an action.
type PermissionDeniedError struct {
	Action Action
	Role   Role
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: role %q may not %s", e.Role, e.Action)
}

// InvalidTransitionError is returned when an entity is not in the state a
// transition requires. The engine surfaces the mismatch instead of
// forcing state.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Entity, e.From, e.To)
}

// UnitUnavailableError is returned when a claim targets a unit that is
// not in the claim-eligible pool.
type UnitUnavailableError struct {
	EquipmentID uint
	Status      EquipmentStatus
}

func (e *UnitUnavailableError) Error() string {
	return fmt.Sprintf("equipment %d unavailable for new claims (status %q)", e.EquipmentID, e.Status)
}

// UnitBusyError is returned when a maintenance toggle or deletion hits a
// unit with a live loan or reservation.
type UnitBusyError struct {
	EquipmentID uint
}

func (e *UnitBusyError) Error() string {
	return fmt.Sprintf("equipment %d has a live loan or reservation", e.EquipmentID)
}

// BorrowerOverdueError blocks new direct loans while the borrower holds
// overdue loans.
type BorrowerOverdueError struct {
	BorrowerID uint
	Count      int
}

func (e *BorrowerOverdueError) Error() string {
	return fmt.Sprintf("borrower %d has %d overdue loan(s)", e.BorrowerID, e.Count)
}

// BelowBulkThresholdError is returned when a bulk request quantity does
// not exceed the configured threshold.
type BelowBulkThresholdError struct {
	Quantity  int
	Threshold int
}

func (e *BelowBulkThresholdError) Error() string {
	return fmt.Sprintf("quantity %d does not exceed bulk threshold %d", e.Quantity, e.Threshold)
}
