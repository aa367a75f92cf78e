package repositories

import (
	"context"
	"errors"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm. One-writer-wins per unit
// comes from SELECT ... FOR UPDATE on the equipment row inside
// WithUnitLock.
type GormStore struct {
	db *gorm.DB

	equipment     *EquipmentRepo
	loans         *LoanRepo
	reservations  *ReservationRepo
	requests      *LoanRequestRepo
	users         *UserRepo
	refreshTokens *RefreshTokenRepo
	notifications *NotificationRepo
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store over the given gorm handle (a root
// connection or an open transaction).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:            db,
		equipment:     &EquipmentRepo{db: db},
		loans:         &LoanRepo{db: db},
		reservations:  &ReservationRepo{db: db},
		requests:      &LoanRequestRepo{db: db},
		users:         &UserRepo{db: db},
		refreshTokens: &RefreshTokenRepo{db: db},
		notifications: &NotificationRepo{db: db},
	}
}

func (s *GormStore) Equipment() EquipmentRepository         { return s.equipment }
func (s *GormStore) Loans() LoanRepository                  { return s.loans }
func (s *GormStore) Reservations() ReservationRepository    { return s.reservations }
func (s *GormStore) Requests() LoanRequestRepository        { return s.requests }
func (s *GormStore) Users() UserRepository                  { return s.users }
func (s *GormStore) RefreshTokens() RefreshTokenRepository  { return s.refreshTokens }
func (s *GormStore) Notifications() NotificationRepository  { return s.notifications }

// WithUnitLock locks the equipment row for the duration of fn. Two
// concurrent transitions racing on the same unit serialize here; the
// loser re-validates against the committed state and fails cleanly.
func (s *GormStore) WithUnitLock(ctx context.Context, equipmentID uint, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit models.EquipmentUnit
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&unit, equipmentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		return fn(NewGormStore(tx))
	})
}

// WithTx runs fn in a plain transaction.
func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

// notFound maps gorm's sentinel to the domain taxonomy.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
