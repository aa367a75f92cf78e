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

// CreateBulkRequestInput represents bulk loan request creation input
type CreateBulkRequestInput struct {
	RequesterID        uint      `json:"requester_id,omitempty"` // defaults to the actor
	Quantity           int       `json:"quantity" validate:"required,min=1"`
	CandidateEquipment []uint    `json:"candidate_equipment,omitempty"`
	Purpose            string    `json:"purpose" validate:"required"`
	ExpectedReturnDate time.Time `json:"expected_return_date" validate:"required"`
	ExpectedReturnTime string    `json:"expected_return_time,omitempty"`
}

// DecideBulkRequestInput carries the coordinator's one-way decision.
type DecideBulkRequestInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"` // required on rejection
}

// BulkPickupResult reports the outcome for one unit during bulk pickup.
type BulkPickupResult struct {
	EquipmentID uint   `json:"equipment_id"`
	LoanID      uint   `json:"loan_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CreateBulkRequest opens a bulk loan request. Quantities at or below
// the bulk threshold go through direct loans instead.
func (e *AllocationEngine) CreateBulkRequest(ctx context.Context, actor domain.Actor, input *CreateBulkRequestInput) (*models.LoanRequest, error) {
	if err := domain.Authorize(actor.Role, domain.ActionCreateBulkRequest); err != nil {
		return nil, err
	}
	requesterID := input.RequesterID
	if requesterID == 0 {
		requesterID = actor.ID
	}
	if requesterID != actor.ID && !domain.IsAllowed(actor.Role, domain.ActionPrivilegedCancel) {
		return nil, &domain.PermissionDeniedError{Action: domain.ActionCreateBulkRequest, Role: actor.Role}
	}
	if input.Quantity <= 0 || input.Purpose == "" || input.ExpectedReturnDate.IsZero() {
		return nil, fmt.Errorf("%w: quantity, purpose and expected return date are required", domain.ErrInvalidInput)
	}
	if input.Quantity <= e.cfg.BulkThreshold {
		return nil, &domain.BelowBulkThresholdError{Quantity: input.Quantity, Threshold: e.cfg.BulkThreshold}
	}

	var req *models.LoanRequest
	err := e.store.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByID(ctx, requesterID); err != nil {
			return err
		}
		for _, id := range input.CandidateEquipment {
			if _, err := tx.Equipment().GetByID(ctx, id); err != nil {
				return err
			}
		}
		req = &models.LoanRequest{
			RequesterID:        requesterID,
			CandidateEquipment: models.IDList(input.CandidateEquipment),
			Quantity:           input.Quantity,
			Purpose:            input.Purpose,
			ExpectedReturnDate: input.ExpectedReturnDate,
			ExpectedReturnTime: input.ExpectedReturnTime,
			Status:             domain.RequestPending,
		}
		return tx.Requests().Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📋 Bulk request %d created (requester %d, quantity %d)", req.ID, req.RequesterID, req.Quantity)
	return req, nil
}

// DecideBulkRequest records the coordinator's decision. The decision is
// one-way: a decided request cannot be decided again.
func (e *AllocationEngine) DecideBulkRequest(ctx context.Context, actor domain.Actor, requestID uint, input *DecideBulkRequestInput) (*models.LoanRequest, error) {
	if err := domain.Authorize(actor.Role, domain.ActionDecideBulkRequest); err != nil {
		return nil, err
	}
	if !input.Approve && input.Reason == "" {
		return nil, domain.ErrReasonRequired
	}

	now := e.clock.Now()
	var (
		req    *models.LoanRequest
		events []domain.Event
	)
	err := e.store.WithTx(ctx, func(tx repositories.Store) error {
		r, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if r.Decided() {
			return domain.ErrAlreadyDecided
		}
		if input.Approve {
			r.Status = domain.RequestAuthorized
		} else {
			r.Status = domain.RequestRejected
		}
		r.DecisionReason = input.Reason
		r.DeciderID = &actor.ID
		r.DecidedAt = &now
		if err := tx.Requests().Update(ctx, r); err != nil {
			return err
		}
		req = r
		events = append(events, e.newEvent(domain.EventBulkRequestDecided, r.ID, r.RequesterID,
			"Bulk request #%d %s", r.ID, r.Status))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Bulk request %d decided: %s", requestID, req.Status)
	e.dispatch(ctx, events)
	return req, nil
}

// ConfirmBulkPickup hands out units against an authorized request.
// Allocation is best-effort per unit: unavailable candidates are
// reported alongside the loans that were created.
func (e *AllocationEngine) ConfirmBulkPickup(ctx context.Context, actor domain.Actor, requestID uint) ([]BulkPickupResult, error) {
	if err := domain.Authorize(actor.Role, domain.ActionConfirmBulkPickup); err != nil {
		return nil, err
	}

	req, err := e.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestAuthorized {
		return nil, &domain.InvalidTransitionError{Entity: "loan_request", From: string(req.Status), To: "picked_up"}
	}
	if req.PickupConfirmed {
		return nil, &domain.InvalidTransitionError{Entity: "loan_request", From: "picked_up", To: "picked_up"}
	}

	candidates := []uint(req.CandidateEquipment)
	if len(candidates) == 0 {
		pool, _, err := e.store.Equipment().List(ctx, repositories.EquipmentFilter{ClaimEligible: true}, 0, req.Quantity)
		if err != nil {
			return nil, err
		}
		for _, u := range pool {
			candidates = append(candidates, u.ID)
		}
	}

	results := make([]BulkPickupResult, 0, len(candidates))
	granted := 0
	for _, equipmentID := range candidates {
		if granted >= req.Quantity {
			break
		}
		loan, err := e.createLoan(ctx, actor, &CreateDirectLoanInput{
			EquipmentID:        equipmentID,
			BorrowerID:         req.RequesterID,
			ExpectedReturnDate: req.ExpectedReturnDate,
			ExpectedReturnTime: req.ExpectedReturnTime,
			Purpose:            req.Purpose,
			Notes:              fmt.Sprintf("bulk request #%d", req.ID),
		})
		if err != nil {
			results = append(results, BulkPickupResult{EquipmentID: equipmentID, Error: err.Error()})
			continue
		}
		results = append(results, BulkPickupResult{EquipmentID: equipmentID, LoanID: loan.ID})
		granted++
	}

	if granted > 0 {
		now := e.clock.Now()
		err = e.store.WithTx(ctx, func(tx repositories.Store) error {
			r, err := tx.Requests().GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			r.AssignedTechID = &actor.ID
			r.PickupConfirmed = true
			r.PickupConfirmedAt = &now
			return tx.Requests().Update(ctx, r)
		})
		if err != nil {
			return nil, err
		}
	}

	log.Printf("📦 Bulk request %d pickup: %d of %d units loaned", requestID, granted, req.Quantity)
	return results, nil
}

// ListBulkRequests lists requests, owner-scoped for roles without
// viewAllLoans.
func (e *AllocationEngine) ListBulkRequests(ctx context.Context, actor domain.Actor, filter repositories.LoanRequestFilter, offset, limit int) ([]*models.LoanRequest, int64, error) {
	if !domain.IsAllowed(actor.Role, domain.ActionViewAllLoans) {
		filter.RequesterID = actor.ID
	}
	return e.store.Requests().List(ctx, filter, offset, limit)
}

// GetBulkRequest fetches one request, owner-scoped for roles without
// viewAllLoans.
func (e *AllocationEngine) GetBulkRequest(ctx context.Context, actor domain.Actor, requestID uint) (*models.LoanRequest, error) {
	req, err := e.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !domain.IsAllowed(actor.Role, domain.ActionViewAllLoans) && req.RequesterID != actor.ID {
		return nil, domain.ErrNotFound
	}
	return req, nil
}
