package services

import (
	"context"
	"testing"

	"equipahub/internal/adapters/persistence/memory"
	"equipahub/internal/core/domain"
)

func TestNotificationSeverityMapping(t *testing.T) {
	tests := []struct {
		typ            domain.EventType
		severity       string
		actionRequired bool
	}{
		{domain.EventLoanCreated, "info", false},
		{domain.EventLoanOverdue, "alert", true},
		{domain.EventLoanReturned, "success", false},
		{domain.EventReservationExpiringSoon, "warning", true},
		{domain.EventReservationConverted, "success", false},
		{domain.EventBulkRequestDecided, "info", false},
	}
	for _, tt := range tests {
		if got := severity(tt.typ); got != tt.severity {
			t.Errorf("severity(%s) = %s, want %s", tt.typ, got, tt.severity)
		}
		if got := actionRequired(tt.typ); got != tt.actionRequired {
			t.Errorf("actionRequired(%s) = %v, want %v", tt.typ, got, tt.actionRequired)
		}
	}
}

func TestNotificationInbox(t *testing.T) {
	store := memory.NewStore()
	svc := NewNotificationService(store)
	ctx := context.Background()
	alice := domain.Actor{ID: 1, Role: domain.RoleFaculty}
	bob := domain.Actor{ID: 2, Role: domain.RoleFaculty}

	svc.Emit(ctx, domain.Event{ID: "evt-1", Type: domain.EventLoanCreated, UserID: alice.ID, Summary: "Loan #1 created"})
	svc.Emit(ctx, domain.Event{ID: "evt-2", Type: domain.EventLoanOverdue, UserID: alice.ID, Summary: "Loan #1 is overdue"})
	svc.Emit(ctx, domain.Event{ID: "evt-3", Type: domain.EventLoanCreated, UserID: bob.ID, Summary: "Loan #2 created"})

	// Inboxes are per-user.
	items, total, err := svc.List(ctx, alice, ListNotificationsInput{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("alice inbox = %d items, want 2", total)
	}

	n, err := svc.CountUnread(ctx, alice)
	if err != nil || n != 2 {
		t.Fatalf("unread = %d, %v; want 2, nil", n, err)
	}

	if err := svc.MarkRead(ctx, alice, items[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = svc.CountUnread(ctx, alice)
	if n != 1 {
		t.Fatalf("unread after mark = %d, want 1", n)
	}

	// Alice cannot mark Bob's notification.
	bobItems, _, _ := svc.List(ctx, bob, ListNotificationsInput{Limit: 10})
	if len(bobItems) != 1 {
		t.Fatalf("bob inbox = %d items, want 1", len(bobItems))
	}
	_ = svc.MarkRead(ctx, alice, bobItems[0].ID)
	n, _ = svc.CountUnread(ctx, bob)
	if n != 1 {
		t.Fatalf("bob unread = %d, a foreign mark must not touch it", n)
	}

	if err := svc.MarkAllRead(ctx, alice); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	n, _ = svc.CountUnread(ctx, alice)
	if n != 0 {
		t.Fatalf("unread after mark all = %d, want 0", n)
	}
}
