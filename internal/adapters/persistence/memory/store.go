// Package memory provides an in-memory Store implementation. It backs
// the engine tests and the storage-free demo mode; semantics mirror the
// gorm store, including per-unit one-writer-wins and rollback of a
// failed transaction.
package memory

import (
	"context"
	"sync"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

type tables struct {
	users         map[uint]models.User
	refreshTokens map[uint]models.RefreshToken
	equipment     map[uint]models.EquipmentUnit
	loans         map[uint]models.Loan
	reservations  map[uint]models.Reservation
	requests      map[uint]models.LoanRequest
	notifications map[uint]models.Notification
	seq           map[string]uint
}

func newTables() *tables {
	return &tables{
		users:         make(map[uint]models.User),
		refreshTokens: make(map[uint]models.RefreshToken),
		equipment:     make(map[uint]models.EquipmentUnit),
		loans:         make(map[uint]models.Loan),
		reservations:  make(map[uint]models.Reservation),
		requests:      make(map[uint]models.LoanRequest),
		notifications: make(map[uint]models.Notification),
		seq:           make(map[string]uint),
	}
}

func (t *tables) next(table string) uint {
	t.seq[table]++
	return t.seq[table]
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.refreshTokens {
		c.refreshTokens[k] = v
	}
	for k, v := range t.equipment {
		c.equipment[k] = v
	}
	for k, v := range t.loans {
		c.loans[k] = v
	}
	for k, v := range t.reservations {
		c.reservations[k] = v
	}
	for k, v := range t.requests {
		c.requests[k] = v
	}
	for k, v := range t.notifications {
		c.notifications[k] = v
	}
	for k, v := range t.seq {
		c.seq[k] = v
	}
	return c
}

// Store is the in-memory repositories.Store. A single mutex serializes
// transactions, which trivially satisfies the one-writer-per-unit rule.
type Store struct {
	mu   sync.Mutex
	data *tables
	// inTx marks a transactional view; such views skip locking and
	// write to a scratch copy that only replaces data on success.
	inTx bool
}

var _ repositories.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

func (s *Store) Equipment() repositories.EquipmentRepository        { return &equipmentRepo{s} }
func (s *Store) Loans() repositories.LoanRepository                 { return &loanRepo{s} }
func (s *Store) Reservations() repositories.ReservationRepository   { return &reservationRepo{s} }
func (s *Store) Requests() repositories.LoanRequestRepository       { return &requestRepo{s} }
func (s *Store) Users() repositories.UserRepository                 { return &userRepo{s} }
func (s *Store) RefreshTokens() repositories.RefreshTokenRepository { return &refreshTokenRepo{s} }
func (s *Store) Notifications() repositories.NotificationRepository { return &notificationRepo{s} }

// WithUnitLock runs fn atomically; a failed fn leaves no trace.
func (s *Store) WithUnitLock(ctx context.Context, equipmentID uint, fn func(tx repositories.Store) error) error {
	return s.transact(ctx, func(tx *Store) error {
		if _, ok := tx.data.equipment[equipmentID]; !ok {
			return domain.ErrNotFound
		}
		return fn(tx)
	})
}

// WithTx runs fn atomically.
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.transact(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) transact(ctx context.Context, fn func(tx *Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		// Nested transaction joins the outer one.
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := &Store{data: s.data.clone(), inTx: true}
	if err := fn(scratch); err != nil {
		return err
	}
	s.data = scratch.data
	return nil
}

// read gives callers a consistent view of the tables.
func (s *Store) read(fn func(t *tables)) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(s.data)
}

// write mutates tables under the root lock (or inside the current tx).
func (s *Store) write(fn func(t *tables) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func paginate(total int, offset, limit int) (int, int) {
	if offset < 0 || offset >= total {
		return 0, 0
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}
