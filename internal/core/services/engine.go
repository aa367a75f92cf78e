package services

import (
	"context"
	"fmt"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"

	"github.com/google/uuid"
)

// Notifier receives domain events for asynchronous delivery. Delivery
// is at-least-once; consumers deduplicate by event ID.
type Notifier interface {
	Emit(ctx context.Context, event domain.Event)
}

// EngineConfig carries the tunables of the allocation engine.
type EngineConfig struct {
	// BulkThreshold is the quantity a loan request must strictly exceed
	// to enter the bulk workflow.
	BulkThreshold int
	// ReservationGrace is how long past the expected pickup date an
	// unconfirmed reservation survives before the sweep expires it.
	ReservationGrace time.Duration
	// ExpiryWarnWindow is how far ahead the sweep warns about
	// reservations approaching expiry.
	ExpiryWarnWindow time.Duration
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BulkThreshold:    5,
		ReservationGrace: 24 * time.Hour,
		ExpiryWarnWindow: 48 * time.Hour,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.BulkThreshold <= 0 {
		c.BulkThreshold = d.BulkThreshold
	}
	if c.ReservationGrace <= 0 {
		c.ReservationGrace = d.ReservationGrace
	}
	if c.ExpiryWarnWindow <= 0 {
		c.ExpiryWarnWindow = d.ExpiryWarnWindow
	}
	return c
}

// AllocationEngine is the single owner of every equipment, loan,
// reservation and bulk-request mutation. Each operation checks the
// permission matrix, validates the requested transition inside a
// per-unit transaction, commits all affected rows together and emits
// domain events after commit.
type AllocationEngine struct {
	store    repositories.Store
	clock    domain.Clock
	notifier Notifier
	cfg      EngineConfig
}

// NewAllocationEngine creates the engine. notifier may be nil when no
// delivery channel is wired (events are then dropped).
func NewAllocationEngine(store repositories.Store, clock domain.Clock, notifier Notifier, cfg EngineConfig) *AllocationEngine {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &AllocationEngine{
		store:    store,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
	}
}

// Config exposes the effective engine configuration.
func (e *AllocationEngine) Config() EngineConfig { return e.cfg }

// Now returns the engine's current time.
func (e *AllocationEngine) Now() time.Time { return e.clock.Now() }

// newEvent stamps a fresh event with id and time.
func (e *AllocationEngine) newEvent(typ domain.EventType, entityID, userID uint, format string, args ...interface{}) domain.Event {
	return domain.Event{
		ID:       uuid.NewString(),
		Type:     typ,
		EntityID: entityID,
		UserID:   userID,
		Summary:  fmt.Sprintf(format, args...),
		At:       e.clock.Now(),
	}
}

// dispatch hands committed events to the notifier.
func (e *AllocationEngine) dispatch(ctx context.Context, events []domain.Event) {
	if e.notifier == nil {
		return
	}
	for _, ev := range events {
		e.notifier.Emit(ctx, ev)
	}
}

// releaseUnit recomputes the unit status after a claim ended: the
// earliest queued live reservation keeps the unit reserved (FIFO),
// otherwise it returns to available. Must run inside the unit lock.
func releaseUnit(ctx context.Context, tx repositories.Store, unitID uint) (domain.EquipmentStatus, error) {
	queue, err := tx.Reservations().QueueByEquipment(ctx, unitID)
	if err != nil {
		return "", err
	}
	next := domain.EquipmentAvailable
	if len(queue) > 0 {
		next = domain.EquipmentReserved
	}
	if err := tx.Equipment().UpdateStatus(ctx, unitID, next); err != nil {
		return "", err
	}
	return next, nil
}

// overdueCount counts the borrower's live loans that are overdue at now.
func overdueCount(ctx context.Context, tx repositories.Store, borrowerID uint, now time.Time) (int, error) {
	loans, err := tx.Loans().LiveByBorrower(ctx, borrowerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range loans {
		if l.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

// claimEligible validates that the unit can take a new claim. A unit
// with a pending_pickup loan still reads "available" but is not
// eligible, so the live-loan check is part of the rule, not an extra.
func claimEligible(ctx context.Context, tx repositories.Store, unit *models.EquipmentUnit, allowReserved bool) error {
	switch unit.Status {
	case domain.EquipmentAvailable:
	case domain.EquipmentReserved:
		if !allowReserved {
			return &domain.UnitUnavailableError{EquipmentID: unit.ID, Status: unit.Status}
		}
	default:
		return &domain.UnitUnavailableError{EquipmentID: unit.ID, Status: unit.Status}
	}
	live, err := tx.Loans().LiveByEquipment(ctx, unit.ID)
	if err != nil {
		return err
	}
	if live != nil {
		return &domain.UnitUnavailableError{EquipmentID: unit.ID, Status: unit.Status}
	}
	return nil
}
