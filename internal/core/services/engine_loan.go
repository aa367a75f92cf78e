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

// CreateDirectLoanInput represents direct loan creation input
type CreateDirectLoanInput struct {
	EquipmentID        uint      `json:"equipment_id" validate:"required"`
	BorrowerID         uint      `json:"borrower_id" validate:"required"`
	ExpectedReturnDate time.Time `json:"expected_return_date" validate:"required"`
	ExpectedReturnTime string    `json:"expected_return_time,omitempty"`
	Purpose            string    `json:"purpose"`
	Notes              string    `json:"notes,omitempty"`
	// IdempotencyKey lets callers retry safely: a repeated key returns
	// the loan created by the first attempt.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// CreateDirectLoan creates a loan in pending_pickup. The unit keeps
// status available until pickup is confirmed, but the live loan removes
// it from the claim-eligible pool.
func (e *AllocationEngine) CreateDirectLoan(ctx context.Context, actor domain.Actor, input *CreateDirectLoanInput) (*models.Loan, error) {
	if err := domain.Authorize(actor.Role, domain.ActionCreateDirectLoan); err != nil {
		return nil, err
	}
	return e.createLoan(ctx, actor, input)
}

// createLoan is the shared pending-loan creation path used by direct
// loans and bulk pickup. Permission is checked by the callers.
func (e *AllocationEngine) createLoan(ctx context.Context, actor domain.Actor, input *CreateDirectLoanInput) (*models.Loan, error) {
	if input.EquipmentID == 0 || input.BorrowerID == 0 || input.ExpectedReturnDate.IsZero() {
		return nil, fmt.Errorf("%w: equipment, borrower and expected return date are required", domain.ErrInvalidInput)
	}

	now := e.clock.Now()
	var (
		loan   *models.Loan
		events []domain.Event
		replay bool
	)

	err := e.store.WithUnitLock(ctx, input.EquipmentID, func(tx repositories.Store) error {
		if input.IdempotencyKey != "" {
			existing, err := tx.Loans().GetByIdempotencyKey(ctx, input.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				loan, replay = existing, true
				return nil
			}
		}

		if _, err := tx.Users().GetByID(ctx, input.BorrowerID); err != nil {
			return err
		}

		overdue, err := overdueCount(ctx, tx, input.BorrowerID, now)
		if err != nil {
			return err
		}
		if overdue > 0 {
			return &domain.BorrowerOverdueError{BorrowerID: input.BorrowerID, Count: overdue}
		}

		unit, err := tx.Equipment().GetByID(ctx, input.EquipmentID)
		if err != nil {
			return err
		}
		if err := claimEligible(ctx, tx, unit, false); err != nil {
			return err
		}
		queue, err := tx.Reservations().QueueByEquipment(ctx, unit.ID)
		if err != nil {
			return err
		}
		if len(queue) > 0 {
			// A queued reservation outranks a walk-up direct loan.
			return &domain.UnitUnavailableError{EquipmentID: unit.ID, Status: domain.EquipmentReserved}
		}

		l := &models.Loan{
			BorrowerID:         input.BorrowerID,
			EquipmentID:        input.EquipmentID,
			CreatedBy:          actor.ID,
			Status:             domain.LoanPendingPickup,
			StartDate:          now,
			StartTime:          now.Format("15:04"),
			ExpectedReturnDate: input.ExpectedReturnDate,
			ExpectedReturnTime: input.ExpectedReturnTime,
			Purpose:            input.Purpose,
			Notes:              input.Notes,
		}
		if input.IdempotencyKey != "" {
			key := input.IdempotencyKey
			l.IdempotencyKey = &key
		}
		if err := tx.Loans().Create(ctx, l); err != nil {
			return err
		}
		loan = l
		events = append(events, e.newEvent(domain.EventLoanCreated, l.ID, l.BorrowerID,
			"Loan #%d created for %s, pickup pending", l.ID, unit.FullName()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replay {
		log.Printf("📋 Loan %d created (equipment %d, borrower %d)", loan.ID, loan.EquipmentID, loan.BorrowerID)
		e.dispatch(ctx, events)
	}
	return loan, nil
}

// ConfirmPickup moves a pending loan to active and the unit to loaned.
func (e *AllocationEngine) ConfirmPickup(ctx context.Context, actor domain.Actor, loanID uint, notes string) (*models.Loan, error) {
	if err := domain.Authorize(actor.Role, domain.ActionConfirmPickup); err != nil {
		return nil, err
	}

	ref, err := e.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	var loan *models.Loan
	err = e.store.WithUnitLock(ctx, ref.EquipmentID, func(tx repositories.Store) error {
		l, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoanPendingPickup {
			return &domain.InvalidTransitionError{Entity: "loan", From: string(l.Status), To: string(domain.LoanActive)}
		}
		unit, err := tx.Equipment().GetByID(ctx, l.EquipmentID)
		if err != nil {
			return err
		}
		// available covers a direct loan, reserved a converted
		// reservation. Anything else is an inconsistency to surface.
		if unit.Status != domain.EquipmentAvailable && unit.Status != domain.EquipmentReserved {
			return &domain.InvalidTransitionError{Entity: "equipment", From: string(unit.Status), To: string(domain.EquipmentLoaned)}
		}

		l.Status = domain.LoanActive
		l.PickupConfirmed = true
		l.PickupConfirmedAt = &now
		techID := actor.ID
		l.PickupTechID = &techID
		l.Notes = appendNote(l.Notes, notes)
		if err := tx.Loans().Update(ctx, l); err != nil {
			return err
		}
		if err := tx.Equipment().UpdateStatus(ctx, l.EquipmentID, domain.EquipmentLoaned); err != nil {
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🤝 Loan %d pickup confirmed by user %d", loanID, actor.ID)
	return loan, nil
}

// ReturnEquipment completes an active loan and releases the unit,
// promoting the earliest queued reservation when one exists.
func (e *AllocationEngine) ReturnEquipment(ctx context.Context, actor domain.Actor, loanID uint, notes string) (*models.Loan, error) {
	if err := domain.Authorize(actor.Role, domain.ActionReturnEquipment); err != nil {
		return nil, err
	}

	ref, err := e.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	var (
		loan   *models.Loan
		events []domain.Event
	)
	err = e.store.WithUnitLock(ctx, ref.EquipmentID, func(tx repositories.Store) error {
		l, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoanActive {
			return &domain.InvalidTransitionError{Entity: "loan", From: string(l.Status), To: string(domain.LoanCompleted)}
		}
		unit, err := tx.Equipment().GetByID(ctx, l.EquipmentID)
		if err != nil {
			return err
		}
		if unit.Status != domain.EquipmentLoaned {
			return &domain.InvalidTransitionError{Entity: "equipment", From: string(unit.Status), To: string(domain.EquipmentAvailable)}
		}

		l.Status = domain.LoanCompleted
		l.ActualReturnDate = &now
		l.Notes = appendNote(l.Notes, notes)
		if err := tx.Loans().Update(ctx, l); err != nil {
			return err
		}
		if _, err := releaseUnit(ctx, tx, l.EquipmentID); err != nil {
			return err
		}
		loan = l
		events = append(events, e.newEvent(domain.EventLoanReturned, l.ID, l.BorrowerID,
			"Loan #%d returned: %s", l.ID, unit.FullName()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("↩️ Loan %d returned (equipment %d)", loanID, loan.EquipmentID)
	e.dispatch(ctx, events)
	return loan, nil
}

// CancelLoan cancels a loan before pickup. Owner or privileged only.
func (e *AllocationEngine) CancelLoan(ctx context.Context, actor domain.Actor, loanID uint) (*models.Loan, error) {
	ref, err := e.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !domain.CanCancelClaim(actor, ref.BorrowerID) {
		return nil, &domain.PermissionDeniedError{Action: domain.ActionPrivilegedCancel, Role: actor.Role}
	}

	var loan *models.Loan
	err = e.store.WithUnitLock(ctx, ref.EquipmentID, func(tx repositories.Store) error {
		l, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoanPendingPickup {
			return &domain.InvalidTransitionError{Entity: "loan", From: string(l.Status), To: string(domain.LoanCancelled)}
		}
		l.Status = domain.LoanCancelled
		if err := tx.Loans().Update(ctx, l); err != nil {
			return err
		}
		// A converted reservation may have left the unit reserved; the
		// queue decides where it settles.
		unit, err := tx.Equipment().GetByID(ctx, l.EquipmentID)
		if err != nil {
			return err
		}
		if unit.Status == domain.EquipmentAvailable || unit.Status == domain.EquipmentReserved {
			if _, err := releaseUnit(ctx, tx, l.EquipmentID); err != nil {
				return err
			}
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🗑️ Loan %d cancelled before pickup", loanID)
	return loan, nil
}

// LoanView pairs a loan with its computed overdue flag.
type LoanView struct {
	*models.Loan
	Overdue bool `json:"overdue"`
}

// ListLoans lists loans. Roles without viewAllLoans only ever see their
// own, whatever filter they pass.
func (e *AllocationEngine) ListLoans(ctx context.Context, actor domain.Actor, filter repositories.LoanFilter, offset, limit int) ([]*LoanView, int64, error) {
	if !domain.IsAllowed(actor.Role, domain.ActionViewAllLoans) {
		filter.BorrowerID = actor.ID
	}
	loans, total, err := e.store.Loans().List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	now := e.clock.Now()
	views := make([]*LoanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, &LoanView{Loan: l, Overdue: l.IsOverdue(now)})
	}
	return views, total, nil
}

// GetLoan returns one loan with its overdue flag, owner-scoped for
// roles without viewAllLoans.
func (e *AllocationEngine) GetLoan(ctx context.Context, actor domain.Actor, loanID uint) (*LoanView, error) {
	l, err := e.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !domain.IsAllowed(actor.Role, domain.ActionViewAllLoans) && l.BorrowerID != actor.ID {
		return nil, domain.ErrNotFound
	}
	return &LoanView{Loan: l, Overdue: l.IsOverdue(e.clock.Now())}, nil
}

// QueryOverdueLoans returns every live loan overdue at now. Pure read;
// stored status is never touched.
func (e *AllocationEngine) QueryOverdueLoans(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	live, err := e.store.Loans().ListLive(ctx)
	if err != nil {
		return nil, err
	}
	var overdue []*models.Loan
	for _, l := range live {
		if l.IsOverdue(now) {
			overdue = append(overdue, l)
		}
	}
	return overdue, nil
}

func appendNote(existing, note string) string {
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
