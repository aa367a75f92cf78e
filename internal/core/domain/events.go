package domain

import "time"

// EventType enumerates the domain events handed to the notifier.
type EventType string

const (
	EventLoanCreated             EventType = "LoanCreated"
	EventLoanOverdue             EventType = "LoanOverdue"
	EventLoanReturned            EventType = "LoanReturned"
	EventReservationExpiringSoon EventType = "ReservationExpiringSoon"
	EventReservationConverted    EventType = "ReservationConverted"
	EventBulkRequestDecided      EventType = "BulkRequestDecided"
)

// Event is a domain event emitted after a committed state change.
// Delivery is at-least-once; consumers deduplicate by ID.
type Event struct {
	ID       string
	Type     EventType
	EntityID uint
	UserID   uint
	Summary  string
	At       time.Time
}
