package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleTechnician  Role = "technician"
	RoleFaculty     Role = "faculty"
	RoleSecretary   Role = "secretary"
	RoleCoordinator Role = "coordinator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTechnician, RoleFaculty, RoleSecretary, RoleCoordinator:
		return true
	}
	return false
}

// Actor identifies who is performing an operation.
// Every mutating engine call carries one.
type Actor struct {
	ID   uint
	Role Role
}

// EquipmentType represents the kind of physical equipment
type EquipmentType string

const (
	TypeNotebook  EquipmentType = "notebook"
	TypeDesktop   EquipmentType = "desktop"
	TypeTablet    EquipmentType = "tablet"
	TypeProjector EquipmentType = "projector"
	TypePrinter   EquipmentType = "printer"
	TypeMonitor   EquipmentType = "monitor"
	TypeOther     EquipmentType = "other"
)

// Valid reports whether t is a known equipment type.
func (t EquipmentType) Valid() bool {
	switch t {
	case TypeNotebook, TypeDesktop, TypeTablet, TypeProjector, TypePrinter, TypeMonitor, TypeOther:
		return true
	}
	return false
}

// EquipmentStatus represents the lifecycle state of one equipment unit
type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "available"
	EquipmentLoaned      EquipmentStatus = "loaned"
	EquipmentReserved    EquipmentStatus = "reserved"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentInactive    EquipmentStatus = "inactive"
)

// LoanStatus represents the stored lifecycle state of a loan.
// Overdue is never stored; it is computed from the return deadline.
type LoanStatus string

const (
	LoanPendingPickup LoanStatus = "pending_pickup"
	LoanActive        LoanStatus = "active"
	LoanCompleted     LoanStatus = "completed"
	LoanCancelled     LoanStatus = "cancelled"
)

// Live reports whether the loan still holds a claim on its unit.
func (s LoanStatus) Live() bool {
	return s == LoanPendingPickup || s == LoanActive
}

// ReservationStatus represents the lifecycle state of a reservation.
// Expired IS stored (written by the sweep) for auditability;
// converted marks a reservation consumed by loan conversion.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationConverted ReservationStatus = "converted"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// Live reports whether the reservation still holds a claim on its unit.
func (s ReservationStatus) Live() bool {
	return s == ReservationActive || s == ReservationConfirmed
}

// LoanRequestStatus represents the lifecycle state of a bulk loan request
type LoanRequestStatus string

const (
	RequestPending    LoanRequestStatus = "pending"
	RequestAuthorized LoanRequestStatus = "authorized"
	RequestRejected   LoanRequestStatus = "rejected"
)

// DefaultReturnTime is the deadline time of day used when a loan
// carries no explicit expected return time.
const DefaultReturnTime = "23:59"

// CombineDeadline builds the overdue/expiry deadline from a date and an
// optional "HH:MM" time of day. A malformed or empty time falls back to
// DefaultReturnTime. The deadline keeps the date's location.
func CombineDeadline(date time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		t, _ = time.Parse("15:04", DefaultReturnTime)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}
