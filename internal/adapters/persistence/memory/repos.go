package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// ============================================================
// Equipment
// ============================================================

type equipmentRepo struct{ s *Store }

func (r *equipmentRepo) Create(ctx context.Context, unit *models.EquipmentUnit) error {
	return r.s.write(func(t *tables) error {
		for _, u := range t.equipment {
			if u.SerialNumber == unit.SerialNumber {
				return domain.ErrSerialExists
			}
		}
		unit.ID = t.next("equipment")
		stamp(&unit.CreatedAt, &unit.UpdatedAt)
		t.equipment[unit.ID] = *unit
		return nil
	})
}

func (r *equipmentRepo) GetByID(ctx context.Context, id uint) (*models.EquipmentUnit, error) {
	var out *models.EquipmentUnit
	r.s.read(func(t *tables) {
		if u, ok := t.equipment[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *equipmentRepo) GetBySerial(ctx context.Context, serial string) (*models.EquipmentUnit, error) {
	var out *models.EquipmentUnit
	r.s.read(func(t *tables) {
		for _, u := range t.equipment {
			if u.SerialNumber == serial {
				u := u
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *equipmentRepo) Update(ctx context.Context, unit *models.EquipmentUnit) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.equipment[unit.ID]; !ok {
			return domain.ErrNotFound
		}
		stamp(&unit.CreatedAt, &unit.UpdatedAt)
		t.equipment[unit.ID] = *unit
		return nil
	})
}

func (r *equipmentRepo) UpdateStatus(ctx context.Context, id uint, status domain.EquipmentStatus) error {
	return r.s.write(func(t *tables) error {
		u, ok := t.equipment[id]
		if !ok {
			return domain.ErrNotFound
		}
		u.Status = status
		u.UpdatedAt = time.Now()
		t.equipment[id] = u
		return nil
	})
}

func (r *equipmentRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.equipment[id]; !ok {
			return domain.ErrNotFound
		}
		delete(t.equipment, id)
		return nil
	})
}

func (r *equipmentRepo) List(ctx context.Context, filter repositories.EquipmentFilter, offset, limit int) ([]*models.EquipmentUnit, int64, error) {
	var matched []models.EquipmentUnit
	r.s.read(func(t *tables) {
		for _, u := range t.equipment {
			if filter.Status != "" && u.Status != filter.Status {
				continue
			}
			if filter.Type != "" && u.Type != filter.Type {
				continue
			}
			if filter.Search != "" {
				q := strings.ToLower(filter.Search)
				hay := strings.ToLower(u.Brand + " " + u.Model + " " + u.SerialNumber)
				if !strings.Contains(hay, q) {
					continue
				}
			}
			if filter.ClaimEligible {
				if u.Status != domain.EquipmentAvailable {
					continue
				}
				if liveLoanFor(t, u.ID) != nil || len(liveReservationsFor(t, u.ID)) > 0 {
					continue
				}
			}
			matched = append(matched, u)
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Brand != matched[j].Brand {
			return matched[i].Brand < matched[j].Brand
		}
		return matched[i].Model < matched[j].Model
	})
	total := int64(len(matched))
	lo, hi := paginate(len(matched), offset, limit)
	out := make([]*models.EquipmentUnit, 0, hi-lo)
	for i := lo; i < hi; i++ {
		u := matched[i]
		out = append(out, &u)
	}
	return out, total, nil
}

func (r *equipmentRepo) CountByStatus(ctx context.Context) (map[domain.EquipmentStatus]int64, error) {
	counts := make(map[domain.EquipmentStatus]int64)
	r.s.read(func(t *tables) {
		for _, u := range t.equipment {
			counts[u.Status]++
		}
	})
	return counts, nil
}

func liveLoanFor(t *tables, equipmentID uint) *models.Loan {
	for _, l := range t.loans {
		if l.EquipmentID == equipmentID && l.Status.Live() {
			l := l
			return &l
		}
	}
	return nil
}

func liveReservationsFor(t *tables, equipmentID uint) []models.Reservation {
	var out []models.Reservation
	for _, res := range t.reservations {
		if res.EquipmentID == equipmentID && res.Status.Live() {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ============================================================
// Loans
// ============================================================

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(ctx context.Context, loan *models.Loan) error {
	return r.s.write(func(t *tables) error {
		if loan.IdempotencyKey != nil {
			for _, l := range t.loans {
				if l.IdempotencyKey != nil && *l.IdempotencyKey == *loan.IdempotencyKey {
					return fmt.Errorf("duplicate idempotency key %q", *loan.IdempotencyKey)
				}
			}
		}
		loan.ID = t.next("loans")
		stamp(&loan.CreatedAt, &loan.UpdatedAt)
		t.loans[loan.ID] = *loan
		return nil
	})
}

func (r *loanRepo) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var out *models.Loan
	r.s.read(func(t *tables) {
		if l, ok := t.loans[id]; ok {
			out = &l
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *loanRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Loan, error) {
	var out *models.Loan
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			if l.IdempotencyKey != nil && *l.IdempotencyKey == key {
				l := l
				out = &l
				return
			}
		}
	})
	return out, nil
}

func (r *loanRepo) Update(ctx context.Context, loan *models.Loan) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.loans[loan.ID]; !ok {
			return domain.ErrNotFound
		}
		stamp(&loan.CreatedAt, &loan.UpdatedAt)
		t.loans[loan.ID] = *loan
		return nil
	})
}

func (r *loanRepo) List(ctx context.Context, filter repositories.LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	var matched []models.Loan
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			if filter.Status != "" && l.Status != filter.Status {
				continue
			}
			if filter.BorrowerID != 0 && l.BorrowerID != filter.BorrowerID {
				continue
			}
			if filter.EquipmentID != 0 && l.EquipmentID != filter.EquipmentID {
				continue
			}
			matched = append(matched, l)
		}
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	lo, hi := paginate(len(matched), offset, limit)
	out := make([]*models.Loan, 0, hi-lo)
	for i := lo; i < hi; i++ {
		l := matched[i]
		out = append(out, &l)
	}
	return out, total, nil
}

func (r *loanRepo) LiveByEquipment(ctx context.Context, equipmentID uint) (*models.Loan, error) {
	var out *models.Loan
	r.s.read(func(t *tables) {
		out = liveLoanFor(t, equipmentID)
	})
	return out, nil
}

func (r *loanRepo) LiveByBorrower(ctx context.Context, borrowerID uint) ([]*models.Loan, error) {
	var out []*models.Loan
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			if l.BorrowerID == borrowerID && l.Status.Live() {
				l := l
				out = append(out, &l)
			}
		}
	})
	return out, nil
}

func (r *loanRepo) ListLive(ctx context.Context) ([]*models.Loan, error) {
	var out []*models.Loan
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			if l.Status.Live() {
				l := l
				out = append(out, &l)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *loanRepo) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error) {
	counts := make(map[domain.LoanStatus]int64)
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			counts[l.Status]++
		}
	})
	return counts, nil
}

// ============================================================
// Reservations
// ============================================================

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	return r.s.write(func(t *tables) error {
		res.ID = t.next("reservations")
		stamp(&res.CreatedAt, &res.UpdatedAt)
		t.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var out *models.Reservation
	r.s.read(func(t *tables) {
		if res, ok := t.reservations[id]; ok {
			out = &res
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *reservationRepo) Update(ctx context.Context, res *models.Reservation) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.reservations[res.ID]; !ok {
			return domain.ErrNotFound
		}
		stamp(&res.CreatedAt, &res.UpdatedAt)
		t.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) List(ctx context.Context, filter repositories.ReservationFilter, offset, limit int) ([]*models.Reservation, int64, error) {
	var matched []models.Reservation
	r.s.read(func(t *tables) {
		for _, res := range t.reservations {
			if filter.Status != "" && res.Status != filter.Status {
				continue
			}
			if filter.RequesterID != 0 && res.RequesterID != filter.RequesterID {
				continue
			}
			if filter.EquipmentID != 0 && res.EquipmentID != filter.EquipmentID {
				continue
			}
			matched = append(matched, res)
		}
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	lo, hi := paginate(len(matched), offset, limit)
	out := make([]*models.Reservation, 0, hi-lo)
	for i := lo; i < hi; i++ {
		res := matched[i]
		out = append(out, &res)
	}
	return out, total, nil
}

func (r *reservationRepo) QueueByEquipment(ctx context.Context, equipmentID uint) ([]*models.Reservation, error) {
	var out []*models.Reservation
	r.s.read(func(t *tables) {
		for _, res := range liveReservationsFor(t, equipmentID) {
			res := res
			out = append(out, &res)
		}
	})
	return out, nil
}

func (r *reservationRepo) ListActive(ctx context.Context) ([]*models.Reservation, error) {
	var out []*models.Reservation
	r.s.read(func(t *tables) {
		for _, res := range t.reservations {
			if res.Status == domain.ReservationActive {
				res := res
				out = append(out, &res)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *reservationRepo) ListActiveBefore(ctx context.Context, pickupBefore time.Time) ([]*models.Reservation, error) {
	all, _ := r.ListActive(ctx)
	var out []*models.Reservation
	for _, res := range all {
		if res.ExpectedPickupDate.Before(pickupBefore) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *reservationRepo) CountLive(ctx context.Context) (int64, error) {
	var n int64
	r.s.read(func(t *tables) {
		for _, res := range t.reservations {
			if res.Status.Live() {
				n++
			}
		}
	})
	return n, nil
}

// ============================================================
// Bulk requests
// ============================================================

type requestRepo struct{ s *Store }

func (r *requestRepo) Create(ctx context.Context, req *models.LoanRequest) error {
	return r.s.write(func(t *tables) error {
		req.ID = t.next("requests")
		stamp(&req.CreatedAt, &req.UpdatedAt)
		t.requests[req.ID] = *req
		return nil
	})
}

func (r *requestRepo) GetByID(ctx context.Context, id uint) (*models.LoanRequest, error) {
	var out *models.LoanRequest
	r.s.read(func(t *tables) {
		if req, ok := t.requests[id]; ok {
			out = &req
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *requestRepo) Update(ctx context.Context, req *models.LoanRequest) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.requests[req.ID]; !ok {
			return domain.ErrNotFound
		}
		stamp(&req.CreatedAt, &req.UpdatedAt)
		t.requests[req.ID] = *req
		return nil
	})
}

func (r *requestRepo) List(ctx context.Context, filter repositories.LoanRequestFilter, offset, limit int) ([]*models.LoanRequest, int64, error) {
	var matched []models.LoanRequest
	r.s.read(func(t *tables) {
		for _, req := range t.requests {
			if filter.Status != "" && req.Status != filter.Status {
				continue
			}
			if filter.RequesterID != 0 && req.RequesterID != filter.RequesterID {
				continue
			}
			matched = append(matched, req)
		}
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	lo, hi := paginate(len(matched), offset, limit)
	out := make([]*models.LoanRequest, 0, hi-lo)
	for i := lo; i < hi; i++ {
		req := matched[i]
		out = append(out, &req)
	}
	return out, total, nil
}

// ============================================================
// Users
// ============================================================

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.s.write(func(t *tables) error {
		for _, u := range t.users {
			if u.Email == user.Email {
				return fmt.Errorf("duplicate email %q", user.Email)
			}
		}
		user.ID = t.next("users")
		stamp(&user.CreatedAt, &user.UpdatedAt)
		t.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var out *models.User
	r.s.read(func(t *tables) {
		if u, ok := t.users[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	r.s.read(func(t *tables) {
		for _, u := range t.users {
			if u.Email == email {
				u := u
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return u != nil, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.users[user.ID]; !ok {
			return domain.ErrNotFound
		}
		stamp(&user.CreatedAt, &user.UpdatedAt)
		t.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var matched []models.User
	r.s.read(func(t *tables) {
		for _, u := range t.users {
			matched = append(matched, u)
		}
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := int64(len(matched))
	lo, hi := paginate(len(matched), offset, limit)
	out := make([]*models.User, 0, hi-lo)
	for i := lo; i < hi; i++ {
		u := matched[i]
		out = append(out, &u)
	}
	return out, total, nil
}

func (r *userRepo) ListByRole(ctx context.Context, role domain.Role) ([]*models.User, error) {
	var out []*models.User
	r.s.read(func(t *tables) {
		for _, u := range t.users {
			if u.Role == role && u.IsActive {
				u := u
				out = append(out, &u)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ============================================================
// Refresh tokens
// ============================================================

type refreshTokenRepo struct{ s *Store }

func (r *refreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.s.write(func(t *tables) error {
		token.ID = t.next("refresh_tokens")
		if token.CreatedAt.IsZero() {
			token.CreatedAt = time.Now()
		}
		t.refreshTokens[token.ID] = *token
		return nil
	})
}

func (r *refreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	r.s.read(func(t *tables) {
		for _, tok := range t.refreshTokens {
			if tok.TokenHash == tokenHash {
				tok := tok
				out = &tok
				return
			}
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, id uint) error {
	return r.s.write(func(t *tables) error {
		tok, ok := t.refreshTokens[id]
		if !ok {
			return domain.ErrNotFound
		}
		now := time.Now()
		tok.RevokedAt = &now
		t.refreshTokens[id] = tok
		return nil
	})
}

func (r *refreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.s.write(func(t *tables) error {
		now := time.Now()
		for id, tok := range t.refreshTokens {
			if tok.UserID == userID && tok.RevokedAt == nil {
				tok.RevokedAt = &now
				t.refreshTokens[id] = tok
			}
		}
		return nil
	})
}

func (r *refreshTokenRepo) DeleteExpired(ctx context.Context) error {
	return r.s.write(func(t *tables) error {
		now := time.Now()
		for id, tok := range t.refreshTokens {
			if tok.ExpiresAt.Before(now) {
				delete(t.refreshTokens, id)
			}
		}
		return nil
	})
}

// ============================================================
// Notifications
// ============================================================

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return r.s.write(func(t *tables) error {
		n.ID = t.next("notifications")
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		t.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var matched []models.Notification
	r.s.read(func(t *tables) {
		for _, n := range t.notifications {
			if n.UserID == userID {
				matched = append(matched, n)
			}
		}
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	lo, hi := paginate(len(matched), offset, limit)
	out := make([]*models.Notification, 0, hi-lo)
	for i := lo; i < hi; i++ {
		n := matched[i]
		out = append(out, &n)
	}
	return out, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID uint) error {
	return r.s.write(func(t *tables) error {
		n, ok := t.notifications[id]
		if !ok || n.UserID != userID {
			return domain.ErrNotFound
		}
		n.Read = true
		t.notifications[id] = n
		return nil
	})
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uint) error {
	return r.s.write(func(t *tables) error {
		for id, n := range t.notifications {
			if n.UserID == userID && !n.Read {
				n.Read = true
				t.notifications[id] = n
			}
		}
		return nil
	})
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	r.s.read(func(t *tables) {
		for _, n := range t.notifications {
			if n.UserID == userID && !n.Read {
				count++
			}
		}
	})
	return count, nil
}
