package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"equipahub/internal/core/domain"
)

func pickupIn(clock *domain.FixedClock, days int) time.Time {
	return clock.T.AddDate(0, 0, days)
}

func TestReservationHoldsUnit(t *testing.T) {
	engine, store, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	res, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 2),
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if res.Status != domain.ReservationActive {
		t.Fatalf("status = %s, want active", res.Status)
	}
	if res.RequesterID != actorFaculty.ID {
		t.Fatalf("requester = %d, want actor %d", res.RequesterID, actorFaculty.ID)
	}
	u, _ := store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentReserved {
		t.Fatalf("unit status = %s, want reserved", u.Status)
	}

	// A direct loan to anyone else is blocked while the hold stands.
	_, err = engine.CreateDirectLoan(ctx, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty2.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})
	var unavailable *domain.UnitUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("loan on reserved unit err = %v, want UnitUnavailableError", err)
	}
}

func TestReservationQueueFIFO(t *testing.T) {
	engine, store, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	head, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 2),
	})
	if err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	second, err := engine.CreateReservation(ctx, actorFaculty2, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 3),
	})
	if err != nil {
		t.Fatalf("second reservation queues behind the holder: %v", err)
	}

	// Only the head of the queue can confirm.
	_, err = engine.ConfirmReservation(ctx, actorTech, second.ID)
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("confirm non-head err = %v, want InvalidTransitionError", err)
	}

	// Cancelling the head promotes the next in line.
	if _, err := engine.CancelReservation(ctx, actorFaculty, head.ID); err != nil {
		t.Fatalf("cancel head: %v", err)
	}
	u, _ := store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentReserved {
		t.Fatalf("unit status = %s, want still reserved for next in queue", u.Status)
	}
	if _, err := engine.ConfirmReservation(ctx, actorTech, second.ID); err != nil {
		t.Fatalf("confirm promoted reservation: %v", err)
	}

	// Cancelling the last live reservation frees the unit.
	if _, err := engine.CancelReservation(ctx, actorFaculty2, second.ID); err != nil {
		t.Fatalf("cancel last: %v", err)
	}
	u, _ = store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentAvailable {
		t.Fatalf("unit status = %s, want available", u.Status)
	}
}

func TestCancelReservationPermissions(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	res, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 2),
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	_, err = engine.CancelReservation(ctx, actorFaculty2, res.ID)
	var denied *domain.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("foreign cancel err = %v, want PermissionDeniedError", err)
	}

	// Staff can cancel on anyone's behalf.
	if _, err := engine.CancelReservation(ctx, actorSecretary, res.ID); err != nil {
		t.Fatalf("privileged cancel: %v", err)
	}
}

func TestConvertReservationToLoan(t *testing.T) {
	engine, store, clock, rec := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	res, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		ExpectedPickupDate: pickupIn(clock, 1),
		Purpose:            "lab session",
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	// Active reservations must be confirmed first.
	terms := &ConvertToLoanInput{ExpectedReturnDate: dueIn(clock, 7)}
	if _, err := engine.ConvertToLoan(ctx, actorSecretary, res.ID, terms); err == nil {
		t.Fatal("convert of unconfirmed reservation should fail")
	}

	if _, err := engine.ConfirmReservation(ctx, actorSecretary, res.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	loan, err := engine.ConvertToLoan(ctx, actorSecretary, res.ID, terms)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if loan.Status != domain.LoanPendingPickup {
		t.Fatalf("loan status = %s, want pending_pickup", loan.Status)
	}
	if loan.BorrowerID != actorFaculty.ID {
		t.Fatalf("borrower = %d, want reservation requester %d", loan.BorrowerID, actorFaculty.ID)
	}
	if loan.Purpose != "lab session" {
		t.Fatalf("purpose = %q, want inherited from reservation", loan.Purpose)
	}

	r, _ := store.Reservations().GetByID(ctx, res.ID)
	if r.Status != domain.ReservationConverted {
		t.Fatalf("reservation status = %s, want converted", r.Status)
	}
	u, _ := store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentReserved {
		t.Fatalf("unit status = %s, want reserved until pickup", u.Status)
	}
	if got := len(rec.byType(domain.EventReservationConverted)); got != 1 {
		t.Fatalf("ReservationConverted events = %d, want 1", got)
	}

	// Conversion is one-shot.
	if _, err := engine.ConvertToLoan(ctx, actorSecretary, res.ID, terms); err == nil {
		t.Fatal("second convert should fail")
	}

	// Pickup completes the hand-over.
	if _, err := engine.ConfirmPickup(ctx, actorSecretary, loan.ID, ""); err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}
	u, _ = store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentLoaned {
		t.Fatalf("unit status = %s, want loaned", u.Status)
	}
}

func TestReservationForOtherRequiresPrivilege(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	_, err := engine.CreateReservation(ctx, actorFaculty, &CreateReservationInput{
		EquipmentID:        unit.ID,
		RequesterID:        actorFaculty2.ID,
		ExpectedPickupDate: pickupIn(clock, 2),
	})
	var denied *domain.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}

	res, err := engine.CreateReservation(ctx, actorSecretary, &CreateReservationInput{
		EquipmentID:        unit.ID,
		RequesterID:        actorFaculty2.ID,
		ExpectedPickupDate: pickupIn(clock, 2),
	})
	if err != nil {
		t.Fatalf("secretary reserves on behalf: %v", err)
	}
	if res.RequesterID != actorFaculty2.ID {
		t.Fatalf("requester = %d, want %d", res.RequesterID, actorFaculty2.ID)
	}
}
