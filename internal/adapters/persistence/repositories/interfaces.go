package repositories

import (
	"context"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/core/domain"
)

// Store bundles every repository behind one handle and provides the
// transaction discipline the allocation engine relies on. Engine code
// only ever talks to this interface; the gorm implementation lives in
// this package, an in-memory one in persistence/memory.
type Store interface {
	Equipment() EquipmentRepository
	Loans() LoanRepository
	Reservations() ReservationRepository
	Requests() LoanRequestRepository
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Notifications() NotificationRepository

	// WithUnitLock runs fn inside a transaction holding a write lock on
	// the given equipment row: at most one writer per unit at a time.
	// Returns domain.ErrNotFound when the unit does not exist.
	WithUnitLock(ctx context.Context, equipmentID uint, fn func(tx Store) error) error

	// WithTx runs fn inside a plain transaction, for mutations that do
	// not touch a specific unit (e.g. bulk request decisions).
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// EquipmentFilter narrows equipment listings.
type EquipmentFilter struct {
	Status domain.EquipmentStatus
	Type   domain.EquipmentType
	Search string // matches brand, model or serial number
	// ClaimEligible restricts to units available for new claims:
	// status available, no live loan, no live reservation.
	ClaimEligible bool
}

// EquipmentRepository defines equipment data access
type EquipmentRepository interface {
	Create(ctx context.Context, unit *models.EquipmentUnit) error
	GetByID(ctx context.Context, id uint) (*models.EquipmentUnit, error)
	GetBySerial(ctx context.Context, serial string) (*models.EquipmentUnit, error)
	Update(ctx context.Context, unit *models.EquipmentUnit) error
	UpdateStatus(ctx context.Context, id uint, status domain.EquipmentStatus) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter EquipmentFilter, offset, limit int) ([]*models.EquipmentUnit, int64, error)
	CountByStatus(ctx context.Context) (map[domain.EquipmentStatus]int64, error)
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	Status      domain.LoanStatus
	BorrowerID  uint
	EquipmentID uint
}

// LoanRepository defines loan data access
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error)
	// LiveByEquipment returns the pending/active loan holding the unit,
	// or nil when there is none.
	LiveByEquipment(ctx context.Context, equipmentID uint) (*models.Loan, error)
	LiveByBorrower(ctx context.Context, borrowerID uint) ([]*models.Loan, error)
	ListLive(ctx context.Context) ([]*models.Loan, error)
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error)
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	Status      domain.ReservationStatus
	RequesterID uint
	EquipmentID uint
}

// ReservationRepository defines reservation data access
type ReservationRepository interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	Update(ctx context.Context, res *models.Reservation) error
	List(ctx context.Context, filter ReservationFilter, offset, limit int) ([]*models.Reservation, int64, error)
	// QueueByEquipment returns live reservations on the unit in FIFO
	// order (earliest created first).
	QueueByEquipment(ctx context.Context, equipmentID uint) ([]*models.Reservation, error)
	ListActive(ctx context.Context) ([]*models.Reservation, error)
	ListActiveBefore(ctx context.Context, pickupBefore time.Time) ([]*models.Reservation, error)
	CountLive(ctx context.Context) (int64, error)
}

// LoanRequestFilter narrows bulk request listings.
type LoanRequestFilter struct {
	Status      domain.LoanRequestStatus
	RequesterID uint
}

// LoanRequestRepository defines bulk loan request data access
type LoanRequestRepository interface {
	Create(ctx context.Context, req *models.LoanRequest) error
	GetByID(ctx context.Context, id uint) (*models.LoanRequest, error)
	Update(ctx context.Context, req *models.LoanRequest) error
	List(ctx context.Context, filter LoanRequestFilter, offset, limit int) ([]*models.LoanRequest, int64, error)
}

// UserRepository defines user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*models.User, error)
}

// RefreshTokenRepository defines refresh token data access
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// NotificationRepository defines notification data access
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}
