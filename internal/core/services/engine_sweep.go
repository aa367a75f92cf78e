package services

import (
	"context"
	"log"

	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// EmitOverdueEvents emits LoanOverdue for live loans that crossed
// their return deadline. Each loan is flagged so the next sweep run
// does not emit it again.
func (e *AllocationEngine) EmitOverdueEvents(ctx context.Context) (int, error) {
	now := e.clock.Now()
	candidates, err := e.QueryOverdueLoans(ctx, now)
	if err != nil {
		return 0, err
	}

	emitted := 0
	for _, c := range candidates {
		if c.OverdueNotified {
			continue
		}
		var events []domain.Event
		err := e.store.WithUnitLock(ctx, c.EquipmentID, func(tx repositories.Store) error {
			l, err := tx.Loans().GetByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if l.OverdueNotified || !l.IsOverdue(now) {
				return nil
			}
			l.OverdueNotified = true
			if err := tx.Loans().Update(ctx, l); err != nil {
				return err
			}
			events = append(events, e.newEvent(domain.EventLoanOverdue, l.ID, l.BorrowerID,
				"Loan #%d is overdue since %s", l.ID, l.ReturnDeadline().Format("2006-01-02 15:04")))
			return nil
		})
		if err != nil {
			log.Printf("❌ Overdue sweep: loan %d: %v", c.ID, err)
			continue
		}
		if len(events) > 0 {
			e.dispatch(ctx, events)
			emitted++
		}
	}
	return emitted, nil
}

// ExpireReservations marks active reservations past their pickup grace
// as expired and settles the unit on the remaining queue.
func (e *AllocationEngine) ExpireReservations(ctx context.Context) (int, error) {
	now := e.clock.Now()
	active, err := e.store.Reservations().ListActive(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, c := range active {
		if !c.IsExpired(now, e.cfg.ReservationGrace) {
			continue
		}
		err := e.store.WithUnitLock(ctx, c.EquipmentID, func(tx repositories.Store) error {
			r, err := tx.Reservations().GetByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if !r.IsExpired(now, e.cfg.ReservationGrace) {
				return nil
			}
			r.Status = domain.ReservationExpired
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
			expired++
			return nil
		})
		if err != nil {
			log.Printf("❌ Expiry sweep: reservation %d: %v", c.ID, err)
		}
	}
	return expired, nil
}

// EmitExpiryWarnings emits ReservationExpiringSoon for active
// reservations whose expiry falls within the warn window.
func (e *AllocationEngine) EmitExpiryWarnings(ctx context.Context) (int, error) {
	now := e.clock.Now()
	expiring, err := e.QueryExpiringReservations(ctx, now, e.cfg.ExpiryWarnWindow)
	if err != nil {
		return 0, err
	}

	emitted := 0
	for _, c := range expiring {
		if c.ExpiryNotified {
			continue
		}
		var events []domain.Event
		err := e.store.WithUnitLock(ctx, c.EquipmentID, func(tx repositories.Store) error {
			r, err := tx.Reservations().GetByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if r.ExpiryNotified || r.Status != domain.ReservationActive {
				return nil
			}
			r.ExpiryNotified = true
			if err := tx.Reservations().Update(ctx, r); err != nil {
				return err
			}
			events = append(events, e.newEvent(domain.EventReservationExpiringSoon, r.ID, r.RequesterID,
				"Reservation #%d expires at %s", r.ID, r.ExpiryDeadline(e.cfg.ReservationGrace).Format("2006-01-02 15:04")))
			return nil
		})
		if err != nil {
			log.Printf("❌ Warning sweep: reservation %d: %v", c.ID, err)
			continue
		}
		if len(events) > 0 {
			e.dispatch(ctx, events)
			emitted++
		}
	}
	return emitted, nil
}
