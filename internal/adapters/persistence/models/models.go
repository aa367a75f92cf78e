package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"equipahub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity & auth
// ============================================================

// User represents users table. Identity is consumed by the allocation
// core (role + ownership checks only); it is owned here for auth and
// seeding.
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password   string         `gorm:"size:255;not null" json:"-"`
	Role       domain.Role    `gorm:"size:20;not null" json:"role"`
	Department string         `gorm:"size:100" json:"department,omitempty"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department,omitempty"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Equipment
// ============================================================

// EquipmentUnit represents equipment table: one physical item tracked
// by serial number. Status is only ever written by the allocation
// engine (or its maintenance toggles).
type EquipmentUnit struct {
	ID              uint                   `gorm:"primaryKey" json:"id"`
	Brand           string                 `gorm:"size:100;not null" json:"brand"`
	Model           string                 `gorm:"size:100;not null" json:"model"`
	Type            domain.EquipmentType   `gorm:"size:20;not null" json:"type"`
	Status          domain.EquipmentStatus `gorm:"size:20;not null;default:'available';index" json:"status"`
	SerialNumber    string                 `gorm:"uniqueIndex;size:100;not null" json:"serial_number"`
	AcquisitionDate time.Time              `json:"acquisition_date"`
	Location        string                 `gorm:"size:255" json:"location,omitempty"`
	Description     string                 `gorm:"type:text" json:"description,omitempty"`
	CreatedAt       time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt         `gorm:"index" json:"-"`
}

func (EquipmentUnit) TableName() string {
	return "equipment"
}

// FullName returns "brand model" for event summaries.
func (e *EquipmentUnit) FullName() string {
	return e.Brand + " " + e.Model
}

// ============================================================
// Loans
// ============================================================

// Loan represents loans table. Stored status never includes "overdue":
// overdue is computed from the return deadline.
type Loan struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	BorrowerID         uint              `gorm:"index;not null" json:"borrower_id"`
	EquipmentID        uint              `gorm:"index;not null" json:"equipment_id"`
	CreatedBy          uint              `gorm:"not null" json:"created_by"`
	Status             domain.LoanStatus `gorm:"size:20;not null;default:'pending_pickup';index" json:"status"`
	StartDate          time.Time         `json:"start_date"`
	StartTime          string            `gorm:"size:5" json:"start_time,omitempty"`
	ExpectedReturnDate time.Time         `gorm:"not null" json:"expected_return_date"`
	ExpectedReturnTime string            `gorm:"size:5" json:"expected_return_time,omitempty"`
	ActualReturnDate   *time.Time        `json:"actual_return_date,omitempty"`
	Purpose            string            `gorm:"type:text" json:"purpose"`
	Notes              string            `gorm:"type:text" json:"notes,omitempty"`
	PickupConfirmed    bool              `gorm:"default:false" json:"pickup_confirmed"`
	PickupConfirmedAt  *time.Time        `json:"pickup_confirmed_at,omitempty"`
	PickupTechID       *uint             `json:"pickup_tech_id,omitempty"`
	// OverdueNotified keeps the sweep from re-emitting LoanOverdue on
	// every pass. Delivery stays at-least-once.
	OverdueNotified bool    `gorm:"default:false" json:"-"`
	IdempotencyKey  *string `gorm:"uniqueIndex;size:64" json:"-"`

	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Borrower  User          `gorm:"foreignKey:BorrowerID" json:"-"`
	Equipment EquipmentUnit `gorm:"foreignKey:EquipmentID" json:"-"`
}

func (Loan) TableName() string {
	return "loans"
}

// ReturnDeadline is the instant after which the loan counts as overdue.
func (l *Loan) ReturnDeadline() time.Time {
	return domain.CombineDeadline(l.ExpectedReturnDate, l.ExpectedReturnTime)
}

// IsOverdue reports whether the loan is overdue at now. A loan due
// exactly at now is not overdue yet.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status.Live() && now.After(l.ReturnDeadline())
}

// ============================================================
// Reservations
// ============================================================

// Reservation represents reservations table. Multiple live reservations
// may queue on one unit, ordered by creation time; the earliest is the
// queue head and the only one that may be confirmed.
type Reservation struct {
	ID                 uint                     `gorm:"primaryKey" json:"id"`
	RequesterID        uint                     `gorm:"index;not null" json:"requester_id"`
	EquipmentID        uint                     `gorm:"index;not null" json:"equipment_id"`
	ReservationDate    time.Time                `json:"reservation_date"`
	ExpectedPickupDate time.Time                `gorm:"not null" json:"expected_pickup_date"`
	Status             domain.ReservationStatus `gorm:"size:20;not null;default:'active';index" json:"status"`
	Purpose            string                   `gorm:"type:text" json:"purpose"`
	Notes              string                   `gorm:"type:text" json:"notes,omitempty"`
	ConfirmedAt        *time.Time               `json:"confirmed_at,omitempty"`
	// ExpiryNotified mirrors Loan.OverdueNotified for the
	// expiring-soon warning.
	ExpiryNotified bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Requester User          `gorm:"foreignKey:RequesterID" json:"-"`
	Equipment EquipmentUnit `gorm:"foreignKey:EquipmentID" json:"-"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// ExpiryDeadline is the instant the reservation expires when never
// confirmed: end of the expected pickup date plus the grace period.
func (r *Reservation) ExpiryDeadline(grace time.Duration) time.Time {
	return domain.CombineDeadline(r.ExpectedPickupDate, domain.DefaultReturnTime).Add(grace)
}

// IsExpired reports whether an unconfirmed reservation has lapsed at now.
func (r *Reservation) IsExpired(now time.Time, grace time.Duration) bool {
	return r.Status == domain.ReservationActive && now.After(r.ExpiryDeadline(grace))
}

// ============================================================
// Bulk loan requests
// ============================================================

// IDList stores a list of equipment ids as a JSON column.
type IDList []uint

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *IDList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into IDList", value)
}

// LoanRequest represents loan_requests table: the bulk-approval
// workflow gating claims above the bulk threshold.
type LoanRequest struct {
	ID                 uint                     `gorm:"primaryKey" json:"id"`
	RequesterID        uint                     `gorm:"index;not null" json:"requester_id"`
	CandidateEquipment IDList                   `gorm:"type:text" json:"candidate_equipment,omitempty"`
	Quantity           int                      `gorm:"not null" json:"quantity"`
	Purpose            string                   `gorm:"type:text" json:"purpose"`
	ExpectedReturnDate time.Time                `gorm:"not null" json:"expected_return_date"`
	ExpectedReturnTime string                   `gorm:"size:5" json:"expected_return_time,omitempty"`
	Status             domain.LoanRequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	DecisionReason     string                   `gorm:"type:text" json:"decision_reason,omitempty"`
	DeciderID          *uint                    `json:"decider_id,omitempty"`
	DecidedAt          *time.Time               `json:"decided_at,omitempty"`
	AssignedTechID     *uint                    `json:"assigned_tech_id,omitempty"`
	PickupConfirmed    bool                     `gorm:"default:false" json:"pickup_confirmed"`
	PickupConfirmedAt  *time.Time               `json:"pickup_confirmed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Requester User      `gorm:"foreignKey:RequesterID" json:"-"`
}

func (LoanRequest) TableName() string {
	return "loan_requests"
}

// Decided reports whether the one-way decision was already taken.
func (r *LoanRequest) Decided() bool {
	return r.Status != domain.RequestPending
}

// ============================================================
// Notifications
// ============================================================

// Notification represents notifications table: the persisted form of an
// emitted domain event, addressed to one user.
type Notification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	EventID        string    `gorm:"size:36;index" json:"event_id"`
	Type           string    `gorm:"size:20;default:'info'" json:"type"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Message        string    `gorm:"type:text" json:"message"`
	Read           bool      `gorm:"default:false" json:"read"`
	ActionRequired bool      `gorm:"default:false" json:"action_required"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// AutoMigrate creates/updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&EquipmentUnit{},
		&Loan{},
		&Reservation{},
		&LoanRequest{},
		&Notification{},
	)
}
