package services

import (
	"context"
	"log"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// NotificationService persists lifecycle events as user notifications
// and serves the notification inbox. It implements Notifier.
type NotificationService struct {
	store repositories.Store
}

func NewNotificationService(store repositories.Store) *NotificationService {
	return &NotificationService{store: store}
}

// Emit stores one notification row per event. Delivery is
// at-least-once: a retried emission may duplicate a row, which the
// inbox tolerates.
func (s *NotificationService) Emit(ctx context.Context, event domain.Event) {
	n := &models.Notification{
		UserID:         event.UserID,
		EventID:        event.ID,
		Title:          title(event.Type),
		Message:        event.Summary,
		Type:           severity(event.Type),
		ActionRequired: actionRequired(event.Type),
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		log.Printf("❌ Failed to store notification for event %s: %v", event.ID, err)
		return
	}
	log.Printf("🔔 %s: %s", event.Type, event.Summary)
}

// ListInput represents a notification inbox query
type ListNotificationsInput struct {
	Offset int
	Limit  int
}

func (s *NotificationService) List(ctx context.Context, actor domain.Actor, input ListNotificationsInput) ([]*models.Notification, int64, error) {
	return s.store.Notifications().ListByUser(ctx, actor.ID, input.Offset, input.Limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id uint) error {
	return s.store.Notifications().MarkRead(ctx, id, actor.ID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) error {
	return s.store.Notifications().MarkAllRead(ctx, actor.ID)
}

func (s *NotificationService) CountUnread(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.store.Notifications().CountUnread(ctx, actor.ID)
}

func title(typ domain.EventType) string {
	switch typ {
	case domain.EventLoanCreated:
		return "Loan created"
	case domain.EventLoanOverdue:
		return "Loan overdue"
	case domain.EventLoanReturned:
		return "Equipment returned"
	case domain.EventReservationExpiringSoon:
		return "Reservation expiring soon"
	case domain.EventReservationConverted:
		return "Reservation converted"
	case domain.EventBulkRequestDecided:
		return "Bulk request decided"
	default:
		return string(typ)
	}
}

func severity(typ domain.EventType) string {
	switch typ {
	case domain.EventLoanOverdue:
		return "alert"
	case domain.EventReservationExpiringSoon:
		return "warning"
	case domain.EventLoanReturned, domain.EventReservationConverted:
		return "success"
	default:
		return "info"
	}
}

func actionRequired(typ domain.EventType) bool {
	switch typ {
	case domain.EventLoanOverdue, domain.EventReservationExpiringSoon:
		return true
	}
	return false
}
