package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// CreateReservationInput represents reservation creation input
type CreateReservationInput struct {
	EquipmentID        uint      `json:"equipment_id" validate:"required"`
	RequesterID        uint      `json:"requester_id,omitempty"` // defaults to the actor
	ExpectedPickupDate time.Time `json:"expected_pickup_date" validate:"required"`
	Purpose            string    `json:"purpose"`
	Notes              string    `json:"notes,omitempty"`
}

// CreateReservation places a claim on a unit. An already-reserved unit
// accepts further reservations, which queue FIFO behind the holder.
func (e *AllocationEngine) CreateReservation(ctx context.Context, actor domain.Actor, input *CreateReservationInput) (*models.Reservation, error) {
	if err := domain.Authorize(actor.Role, domain.ActionCreateReservation); err != nil {
		return nil, err
	}
	requesterID := input.RequesterID
	if requesterID == 0 {
		requesterID = actor.ID
	}
	if requesterID != actor.ID && !domain.IsAllowed(actor.Role, domain.ActionPrivilegedCancel) {
		return nil, &domain.PermissionDeniedError{Action: domain.ActionCreateReservation, Role: actor.Role}
	}
	if input.EquipmentID == 0 || input.ExpectedPickupDate.IsZero() {
		return nil, fmt.Errorf("%w: equipment and expected pickup date are required", domain.ErrInvalidInput)
	}

	now := e.clock.Now()
	var res *models.Reservation
	err := e.store.WithUnitLock(ctx, input.EquipmentID, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByID(ctx, requesterID); err != nil {
			return err
		}
		unit, err := tx.Equipment().GetByID(ctx, input.EquipmentID)
		if err != nil {
			return err
		}
		if err := claimEligible(ctx, tx, unit, true); err != nil {
			return err
		}

		r := &models.Reservation{
			RequesterID:        requesterID,
			EquipmentID:        input.EquipmentID,
			ReservationDate:    now,
			ExpectedPickupDate: input.ExpectedPickupDate,
			Status:             domain.ReservationActive,
			Purpose:            input.Purpose,
			Notes:              input.Notes,
		}
		if err := tx.Reservations().Create(ctx, r); err != nil {
			return err
		}
		if unit.Status == domain.EquipmentAvailable {
			if err := tx.Equipment().UpdateStatus(ctx, unit.ID, domain.EquipmentReserved); err != nil {
				return err
			}
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📅 Reservation %d created (equipment %d, requester %d)", res.ID, res.EquipmentID, res.RequesterID)
	return res, nil
}

// ConfirmReservation confirms the queue head. Queued reservations wait
// their turn; confirming one out of order is an invalid transition.
func (e *AllocationEngine) ConfirmReservation(ctx context.Context, actor domain.Actor, reservationID uint) (*models.Reservation, error) {
	if err := domain.Authorize(actor.Role, domain.ActionConfirmReservation); err != nil {
		return nil, err
	}

	ref, err := e.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	var res *models.Reservation
	err = e.store.WithUnitLock(ctx, ref.EquipmentID, func(tx repositories.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.Status != domain.ReservationActive {
			return &domain.InvalidTransitionError{Entity: "reservation", From: string(r.Status), To: string(domain.ReservationConfirmed)}
		}
		queue, err := tx.Reservations().QueueByEquipment(ctx, r.EquipmentID)
		if err != nil {
			return err
		}
		if len(queue) == 0 || queue[0].ID != r.ID {
			return &domain.InvalidTransitionError{Entity: "reservation", From: "queued", To: string(domain.ReservationConfirmed)}
		}

		r.Status = domain.ReservationConfirmed
		r.ConfirmedAt = &now
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Reservation %d confirmed by user %d", reservationID, actor.ID)
	return res, nil
}

// CancelReservation cancels a live reservation; owner or privileged
// only. The unit settles on the remaining queue.
func (e *AllocationEngine) CancelReservation(ctx context.Context, actor domain.Actor, reservationID uint) (*models.Reservation, error) {
	if err := domain.Authorize(actor.Role, domain.ActionCancelReservation); err != nil {
		return nil, err
	}
	ref, err := e.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !domain.CanCancelClaim(actor, ref.RequesterID) {
		return nil, &domain.PermissionDeniedError{Action: domain.ActionCancelReservation, Role: actor.Role}
	}

	var res *models.Reservation
	err = e.store.WithUnitLock(ctx, ref.EquipmentID, func(tx repositories.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if !r.Status.Live() {
			return &domain.InvalidTransitionError{Entity: "reservation", From: string(r.Status), To: string(domain.ReservationCancelled)}
		}
		r.Status = domain.ReservationCancelled
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		unit, err := tx.Equipment().GetByID(ctx, r.EquipmentID)
		if err != nil {
			return err
		}
		if unit.Status == domain.EquipmentReserved {
			if _, err := releaseUnit(ctx, tx, r.EquipmentID); err != nil {
				return err
			}
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🗑️ Reservation %d cancelled", reservationID)
	return res, nil
}

// ConvertToLoanInput carries the loan terms for a reservation
// conversion.
type ConvertToLoanInput struct {
	ExpectedReturnDate time.Time `json:"expected_return_date" validate:"required"`
	ExpectedReturnTime string    `json:"expected_return_time,omitempty"`
	Purpose            string    `json:"purpose,omitempty"`
	Notes              string    `json:"notes,omitempty"`
}

// ConvertToLoan consumes a confirmed reservation and creates the loan
// in pending_pickup. The unit stays reserved until pickup confirmation
// moves it to loaned.
func (e *AllocationEngine) ConvertToLoan(ctx context.Context, actor domain.Actor, reservationID uint, terms *ConvertToLoanInput) (*models.Loan, error) {
	if err := domain.Authorize(actor.Role, domain.ActionConfirmReservation); err != nil {
		return nil, err
	}
	if terms == nil || terms.ExpectedReturnDate.IsZero() {
		return nil, fmt.Errorf("%w: expected return date is required", domain.ErrInvalidInput)
	}

	ref, err := e.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	var (
		loan   *models.Loan
		events []domain.Event
	)
	err = e.store.WithUnitLock(ctx, ref.EquipmentID, func(tx repositories.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.Status != domain.ReservationConfirmed {
			return &domain.InvalidTransitionError{Entity: "reservation", From: string(r.Status), To: string(domain.ReservationConverted)}
		}
		live, err := tx.Loans().LiveByEquipment(ctx, r.EquipmentID)
		if err != nil {
			return err
		}
		if live != nil {
			return &domain.UnitUnavailableError{EquipmentID: r.EquipmentID, Status: domain.EquipmentReserved}
		}
		unit, err := tx.Equipment().GetByID(ctx, r.EquipmentID)
		if err != nil {
			return err
		}
		if unit.Status != domain.EquipmentReserved {
			return &domain.InvalidTransitionError{Entity: "equipment", From: string(unit.Status), To: string(domain.EquipmentReserved)}
		}

		purpose := terms.Purpose
		if purpose == "" {
			purpose = r.Purpose
		}
		l := &models.Loan{
			BorrowerID:         r.RequesterID,
			EquipmentID:        r.EquipmentID,
			CreatedBy:          actor.ID,
			Status:             domain.LoanPendingPickup,
			StartDate:          now,
			StartTime:          now.Format("15:04"),
			ExpectedReturnDate: terms.ExpectedReturnDate,
			ExpectedReturnTime: terms.ExpectedReturnTime,
			Purpose:            purpose,
			Notes:              terms.Notes,
		}
		if err := tx.Loans().Create(ctx, l); err != nil {
			return err
		}
		r.Status = domain.ReservationConverted
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		loan = l
		events = append(events, e.newEvent(domain.EventReservationConverted, r.ID, r.RequesterID,
			"Reservation #%d converted to loan #%d (%s)", r.ID, l.ID, unit.FullName()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔄 Reservation %d converted to loan %d", reservationID, loan.ID)
	e.dispatch(ctx, events)
	return loan, nil
}

// ListReservations lists reservations, owner-scoped for roles without
// viewAllLoans.
func (e *AllocationEngine) ListReservations(ctx context.Context, actor domain.Actor, filter repositories.ReservationFilter, offset, limit int) ([]*models.Reservation, int64, error) {
	if !domain.IsAllowed(actor.Role, domain.ActionViewAllLoans) {
		filter.RequesterID = actor.ID
	}
	return e.store.Reservations().List(ctx, filter, offset, limit)
}

// QueryExpiringReservations returns active reservations whose expiry
// deadline falls within (now, now+window].
func (e *AllocationEngine) QueryExpiringReservations(ctx context.Context, now time.Time, window time.Duration) ([]*models.Reservation, error) {
	active, err := e.store.Reservations().ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Reservation
	for _, r := range active {
		deadline := r.ExpiryDeadline(e.cfg.ReservationGrace)
		if deadline.After(now) && !deadline.After(now.Add(window)) {
			out = append(out, r)
		}
	}
	return out, nil
}
