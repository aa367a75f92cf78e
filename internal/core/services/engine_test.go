package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"equipahub/internal/adapters/persistence/memory"
	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// eventRecorder captures emitted events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) Emit(ctx context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) byType(typ domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

var (
	actorTech      = domain.Actor{ID: 1, Role: domain.RoleTechnician}
	actorFaculty   = domain.Actor{ID: 2, Role: domain.RoleFaculty}
	actorSecretary = domain.Actor{ID: 3, Role: domain.RoleSecretary}
	actorCoord     = domain.Actor{ID: 4, Role: domain.RoleCoordinator}
	actorFaculty2  = domain.Actor{ID: 5, Role: domain.RoleFaculty}
)

func testBase() time.Time {
	return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) (*AllocationEngine, *memory.Store, *domain.FixedClock, *eventRecorder) {
	t.Helper()
	store := memory.NewStore()
	clock := &domain.FixedClock{T: testBase()}
	rec := &eventRecorder{}
	engine := NewAllocationEngine(store, clock, rec, DefaultEngineConfig())

	users := []models.User{
		{Name: "Tech", Email: "tech@test.local", Password: "x", Role: domain.RoleTechnician, IsActive: true},
		{Name: "Faculty", Email: "faculty@test.local", Password: "x", Role: domain.RoleFaculty, IsActive: true},
		{Name: "Secretary", Email: "secretary@test.local", Password: "x", Role: domain.RoleSecretary, IsActive: true},
		{Name: "Coordinator", Email: "coord@test.local", Password: "x", Role: domain.RoleCoordinator, IsActive: true},
		{Name: "Faculty Two", Email: "faculty2@test.local", Password: "x", Role: domain.RoleFaculty, IsActive: true},
	}
	for i := range users {
		if err := store.Users().Create(context.Background(), &users[i]); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return engine, store, clock, rec
}

func seedUnit(t *testing.T, engine *AllocationEngine, serial string) *models.EquipmentUnit {
	t.Helper()
	unit, err := engine.CreateEquipment(context.Background(), actorTech, &CreateEquipmentInput{
		Brand:        "Dell",
		Model:        "Latitude",
		Type:         domain.TypeNotebook,
		SerialNumber: serial,
	})
	if err != nil {
		t.Fatalf("seed unit %s: %v", serial, err)
	}
	return unit
}

func mustLoan(t *testing.T, engine *AllocationEngine, actor domain.Actor, input *CreateDirectLoanInput) *models.Loan {
	t.Helper()
	loan, err := engine.CreateDirectLoan(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return loan
}

func dueIn(clock *domain.FixedClock, days int) time.Time {
	return clock.T.AddDate(0, 0, days)
}

func TestDirectLoanLifecycle(t *testing.T) {
	engine, store, clock, rec := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	loan := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})
	if loan.Status != domain.LoanPendingPickup {
		t.Fatalf("status = %s, want pending_pickup", loan.Status)
	}
	if got := len(rec.byType(domain.EventLoanCreated)); got != 1 {
		t.Fatalf("LoanCreated events = %d, want 1", got)
	}

	// The unit is not handed over yet.
	u, _ := store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentAvailable {
		t.Fatalf("unit status = %s, want available before pickup", u.Status)
	}

	loan, err := engine.ConfirmPickup(ctx, actorSecretary, loan.ID, "")
	if err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}
	if loan.Status != domain.LoanActive || !loan.PickupConfirmed {
		t.Fatalf("loan after pickup = %s confirmed=%v", loan.Status, loan.PickupConfirmed)
	}
	u, _ = store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentLoaned {
		t.Fatalf("unit status = %s, want loaned", u.Status)
	}

	loan, err = engine.ReturnEquipment(ctx, actorSecretary, loan.ID, "ok")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if loan.Status != domain.LoanCompleted || loan.ActualReturnDate == nil {
		t.Fatalf("loan after return = %s, return date %v", loan.Status, loan.ActualReturnDate)
	}
	u, _ = store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentAvailable {
		t.Fatalf("unit status = %s, want available after return", u.Status)
	}
	if got := len(rec.byType(domain.EventLoanReturned)); got != 1 {
		t.Fatalf("LoanReturned events = %d, want 1", got)
	}
}

func TestDirectLoanPermissions(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	unit := seedUnit(t, engine, "NB-1")

	_, err := engine.CreateDirectLoan(context.Background(), actorFaculty, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})
	var denied *domain.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}
}

func TestDirectLoanIdempotency(t *testing.T) {
	engine, store, clock, rec := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	input := &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
		IdempotencyKey:     "req-42",
	}
	first := mustLoan(t, engine, actorTech, input)
	second := mustLoan(t, engine, actorTech, input)
	if first.ID != second.ID {
		t.Fatalf("retry created a new loan: %d vs %d", first.ID, second.ID)
	}
	if got := len(rec.byType(domain.EventLoanCreated)); got != 1 {
		t.Fatalf("LoanCreated events = %d, want 1 for replayed request", got)
	}
	_, total, _ := store.Loans().List(ctx, repositories.LoanFilter{}, 0, 100)
	if total != 1 {
		t.Fatalf("loans stored = %d, want 1", total)
	}
}

func TestDirectLoanBlockedWhileBorrowerOverdue(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	ctx := context.Background()
	first := seedUnit(t, engine, "NB-1")
	second := seedUnit(t, engine, "NB-2")

	loan := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        first.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 1),
	})
	if _, err := engine.ConfirmPickup(ctx, actorSecretary, loan.ID, ""); err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}

	// Past the end-of-day deadline the loan is overdue and the borrower
	// is blocked from new loans.
	clock.T = domain.CombineDeadline(dueIn(clock, 1), "").Add(time.Minute)

	_, err := engine.CreateDirectLoan(ctx, actorTech, &CreateDirectLoanInput{
		EquipmentID:        second.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})
	var overdue *domain.BorrowerOverdueError
	if !errors.As(err, &overdue) {
		t.Fatalf("err = %v, want BorrowerOverdueError", err)
	}
	if overdue.Count != 1 {
		t.Fatalf("overdue count = %d, want 1", overdue.Count)
	}

	// A different borrower is unaffected.
	if _, err := engine.CreateDirectLoan(ctx, actorTech, &CreateDirectLoanInput{
		EquipmentID:        second.ID,
		BorrowerID:         actorFaculty2.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	}); err != nil {
		t.Fatalf("loan for clean borrower: %v", err)
	}
}

func TestOverdueBoundaryIsExclusive(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	due := dueIn(clock, 3)
	loan := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: due,
		ExpectedReturnTime: "17:00",
	})
	if _, err := engine.ConfirmPickup(ctx, actorSecretary, loan.ID, ""); err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}

	deadline := domain.CombineDeadline(due, "17:00")

	// Exactly at the deadline the loan is not overdue yet.
	got, err := engine.QueryOverdueLoans(ctx, deadline)
	if err != nil {
		t.Fatalf("query overdue: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("overdue at deadline = %d, want 0", len(got))
	}

	got, err = engine.QueryOverdueLoans(ctx, deadline.Add(time.Second))
	if err != nil {
		t.Fatalf("query overdue: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("overdue after deadline = %d, want 1", len(got))
	}
}

func TestCancelLoanBeforePickupOnly(t *testing.T) {
	engine, store, clock, _ := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	loan := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})

	// Another faculty member may not cancel someone else's loan.
	_, err := engine.CancelLoan(ctx, actorFaculty2, loan.ID)
	var denied *domain.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("foreign cancel err = %v, want PermissionDeniedError", err)
	}

	// The borrower may.
	cancelled, err := engine.CancelLoan(ctx, actorFaculty, loan.ID)
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if cancelled.Status != domain.LoanCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	u, _ := store.Equipment().GetByID(ctx, unit.ID)
	if u.Status != domain.EquipmentAvailable {
		t.Fatalf("unit status = %s, want available", u.Status)
	}

	// Once picked up, cancel is no longer possible.
	loan2 := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})
	if _, err := engine.ConfirmPickup(ctx, actorSecretary, loan2.ID, ""); err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}
	_, err = engine.CancelLoan(ctx, actorSecretary, loan2.ID)
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("cancel active err = %v, want InvalidTransitionError", err)
	}
}

func TestDoubleReturnRejected(t *testing.T) {
	engine, _, clock, rec := newTestEngine(t)
	ctx := context.Background()
	unit := seedUnit(t, engine, "NB-1")

	loan := mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID:        unit.ID,
		BorrowerID:         actorFaculty.ID,
		ExpectedReturnDate: dueIn(clock, 7),
	})
	if _, err := engine.ConfirmPickup(ctx, actorSecretary, loan.ID, ""); err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}
	if _, err := engine.ReturnEquipment(ctx, actorSecretary, loan.ID, ""); err != nil {
		t.Fatalf("first return: %v", err)
	}

	_, err := engine.ReturnEquipment(ctx, actorSecretary, loan.ID, "")
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("second return err = %v, want InvalidTransitionError", err)
	}
	if got := len(rec.byType(domain.EventLoanReturned)); got != 1 {
		t.Fatalf("LoanReturned events = %d, want exactly 1", got)
	}
}

func TestListLoansScopedToOwnForFaculty(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	ctx := context.Background()
	a := seedUnit(t, engine, "NB-1")
	b := seedUnit(t, engine, "NB-2")

	mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID: a.ID, BorrowerID: actorFaculty.ID, ExpectedReturnDate: dueIn(clock, 7),
	})
	mustLoan(t, engine, actorTech, &CreateDirectLoanInput{
		EquipmentID: b.ID, BorrowerID: actorFaculty2.ID, ExpectedReturnDate: dueIn(clock, 7),
	})

	own, total, err := engine.ListLoans(ctx, actorFaculty, repositories.LoanFilter{}, 0, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(own) != 1 || own[0].BorrowerID != actorFaculty.ID {
		t.Fatalf("faculty sees %d loans, want only their own", total)
	}

	_, total, err = engine.ListLoans(ctx, actorSecretary, repositories.LoanFilter{}, 0, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("secretary sees %d loans, want 2", total)
	}
}
