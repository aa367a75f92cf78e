package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

func seedEquipment(t *testing.T, s *Store, serial string) *models.EquipmentUnit {
	t.Helper()
	u := &models.EquipmentUnit{
		Brand:        "Dell",
		Model:        "Latitude",
		Type:         domain.TypeNotebook,
		Status:       domain.EquipmentAvailable,
		SerialNumber: serial,
	}
	if err := s.Equipment().Create(context.Background(), u); err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	return u
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx repositories.Store) error {
		u := &models.EquipmentUnit{
			Brand: "Dell", Model: "Latitude",
			Type: domain.TypeNotebook, Status: domain.EquipmentAvailable,
			SerialNumber: "NB-1",
		}
		if err := tx.Equipment().Create(ctx, u); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the callback error", err)
	}

	_, total, err := s.Equipment().List(ctx, repositories.EquipmentFilter{}, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("equipment after rollback = %d, want 0", total)
	}
}

func TestWithTxCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx repositories.Store) error {
		return tx.Equipment().Create(ctx, &models.EquipmentUnit{
			Brand: "Dell", Model: "Latitude",
			Type: domain.TypeNotebook, Status: domain.EquipmentAvailable,
			SerialNumber: "NB-1",
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if _, err := s.Equipment().GetBySerial(ctx, "NB-1"); err != nil {
		t.Fatalf("committed row not visible: %v", err)
	}
}

func TestWithUnitLockUnknownUnit(t *testing.T) {
	s := NewStore()
	err := s.WithUnitLock(context.Background(), 42, func(tx repositories.Store) error {
		t.Fatal("callback must not run for a missing unit")
		return nil
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUserEmailUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u := &models.User{Name: "A", Email: "a@test.local", Password: "x", Role: domain.RoleFaculty, IsActive: true}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("first create: %v", err)
	}
	dup := &models.User{Name: "B", Email: "a@test.local", Password: "x", Role: domain.RoleFaculty, IsActive: true}
	if err := s.Users().Create(ctx, dup); err == nil {
		t.Fatal("duplicate email accepted")
	}
}

func TestLoanIdempotencyKeyLookup(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	unit := seedEquipment(t, s, "NB-1")

	key := "req-1"
	loan := &models.Loan{
		BorrowerID:         1,
		EquipmentID:        unit.ID,
		CreatedBy:          1,
		Status:             domain.LoanPendingPickup,
		StartDate:          time.Now(),
		ExpectedReturnDate: time.Now().AddDate(0, 0, 7),
		IdempotencyKey:     &key,
	}
	if err := s.Loans().Create(ctx, loan); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Loans().GetByIdempotencyKey(ctx, "req-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ID != loan.ID {
		t.Fatalf("lookup = %+v, want loan %d", got, loan.ID)
	}

	// A missing key is not an error, just absence.
	got, err = s.Loans().GetByIdempotencyKey(ctx, "req-2")
	if err != nil || got != nil {
		t.Fatalf("missing key = %+v, %v; want nil, nil", got, err)
	}

	// Reusing the key is refused at the storage layer.
	clone := *loan
	clone.ID = 0
	if err := s.Loans().Create(ctx, &clone); err == nil {
		t.Fatal("duplicate idempotency key accepted")
	}
}

func TestReservationQueueOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	unit := seedEquipment(t, s, "NB-1")

	for i := uint(1); i <= 3; i++ {
		r := &models.Reservation{
			RequesterID:        i,
			EquipmentID:        unit.ID,
			ReservationDate:    time.Now(),
			ExpectedPickupDate: time.Now().AddDate(0, 0, 1),
			Status:             domain.ReservationActive,
		}
		if err := s.Reservations().Create(ctx, r); err != nil {
			t.Fatalf("create reservation %d: %v", i, err)
		}
	}

	queue, err := s.Reservations().QueueByEquipment(ctx, unit.ID)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3", len(queue))
	}
	for i := 1; i < len(queue); i++ {
		if queue[i].ID < queue[i-1].ID {
			t.Fatalf("queue out of order: %d before %d", queue[i-1].ID, queue[i].ID)
		}
	}
	if queue[0].RequesterID != 1 {
		t.Fatalf("queue head requester = %d, want first arrival", queue[0].RequesterID)
	}
}
