package services

import (
	"context"
	"testing"
	"time"

	"equipahub/internal/core/domain"
)

func TestEmitOverdueEventsOnce(t *testing.T) {
	engine, _, clock, rec := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	due := dueIn(clock, 1)
	loan := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: due,
	})
	if _, err := engine.ConfirmPickup(ctx, actorSecretary, loan.ID, ""); err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}

	// Nothing to do before the deadline.
	n, err := engine.EmitOverdueEvents(ctx)
	if err != nil || n != 0 {
		t.Fatalf("sweep before deadline = %d, %v; want 0, nil", n, err)
	}

	clock.T = domain.CombineDeadline(due, "").Add(time.Hour)

	n, err = engine.EmitOverdueEvents(ctx)
	if err != nil || n != 1 {
		t.Fatalf("sweep after deadline = %d, %v; want 1, nil", n, err)
	}
	if got := len(rec.byType(domain.EventLoanOverdue)); got != 1 {
		t.Fatalf("LoanOverdue events = %d, want 1", got)
	}

	// The flag stops a second emission.
	n, err = engine.EmitOverdueEvents(ctx)
	if err != nil || n != 0 {
		t.Fatalf("repeat sweep = %d, %v; want 0, nil", n, err)
	}
	if got := len(rec.byType(domain.EventLoanOverdue)); got != 1 {
		t.Fatalf("LoanOverdue events after repeat = %d, want still 1", got)
	}

	// Returning an overdue loan still works and clears the board.
	if _, err := engine.ReturnEquipment(ctx, actorSecretary, loan.ID, "late"); err != nil {
		t.Fatalf("late return: %v", err)
	}
	n, _ = engine.EmitOverdueEvents(ctx)
	if n != 0 {
		t.Fatalf("sweep after return = %d, want 0", n)
	}
}

func TestExpireReservationsReleasesUnit(t *testing.T) {
	engine, store, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	res, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 1),
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	// Inside the grace window nothing expires.
	n, err := engine.ExpireReservations(ctx)
	if err != nil || n != 0 {
		t.Fatalf("early sweep = %d, %v; want 0, nil", n, err)
	}

	clock.T = res.ExpiryDeadline(DefaultEngineConfig().ReservationGrace).Add(time.Minute)

	n, err = engine.ExpireReservations(ctx)
	if err != nil || n != 1 {
		t.Fatalf("sweep past grace = %d, %v; want 1, nil", n, err)
	}
	r, _ := store.Reservations().GetByID(ctx, res.ID)
	if r.Status != domain.ReservationExpired {
		t.Fatalf("reservation status = %s, want expired", r.Status)
	}
	u, _ := store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentAvailable {
		t.Fatalf("unit status = %s, want available", u.Status)
	}
}

func TestExpireReservationsSkipsConfirmed(t *testing.T) {
	engine, store, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	res, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 1),
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if _, err := engine.ConfirmReservation(ctx, actorSecretary, res.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	clock.T = res.ExpiryDeadline(DefaultEngineConfig().ReservationGrace).Add(time.Hour)

	n, err := engine.ExpireReservations(ctx)
	if err != nil || n != 0 {
		t.Fatalf("sweep = %d, %v; confirmed reservations must not expire", n, err)
	}
	r, _ := store.Reservations().GetByID(ctx, res.ID)
	if r.Status != domain.ReservationConfirmed {
		t.Fatalf("reservation status = %s, want confirmed", r.Status)
	}
}

func TestEmitExpiryWarningsOnce(t *testing.T) {
	engine, _, clock, rec := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	// Pickup expected tomorrow: the expiry deadline falls inside the
	// 48h warn window right away.
	_, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 1),
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	n, err := engine.EmitExpiryWarnings(ctx)
	if err != nil || n != 1 {
		t.Fatalf("warn sweep = %d, %v; want 1, nil", n, err)
	}
	if got := len(rec.byType(domain.EventReservationExpiringSoon)); got != 1 {
		t.Fatalf("ReservationExpiringSoon events = %d, want 1", got)
	}

	n, err = engine.EmitExpiryWarnings(ctx)
	if err != nil || n != 0 {
		t.Fatalf("repeat warn sweep = %d, %v; want 0, nil", n, err)
	}
}

func TestEmitExpiryWarningsRespectsWindow(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	// Pickup a week out: the expiry deadline is far beyond the warn
	// window, so no warning yet.
	_, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 7),
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	n, err := engine.EmitExpiryWarnings(ctx)
	if err != nil || n != 0 {
		t.Fatalf("warn sweep = %d, %v; want 0, nil", n, err)
	}

	clock.T = clock.T.AddDate(0, 0, 7)
	n, err = engine.EmitExpiryWarnings(ctx)
	if err != nil || n != 1 {
		t.Fatalf("warn sweep inside window = %d, %v; want 1, nil", n, err)
	}
}
