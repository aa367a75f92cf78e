package services

import (
	"context"
	"time"

	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// DashboardService aggregates inventory and lending statistics
type DashboardService struct {
	engine *AllocationEngine
	store  repositories.Store
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(engine *AllocationEngine, store repositories.Store) *DashboardService {
	return &DashboardService{engine: engine, store: store}
}

// DashboardStats represents the main dashboard figures
type DashboardStats struct {
	// Equipment statistics
	TotalEquipment int64 `json:"total_equipment"`
	Available      int64 `json:"available"`
	Loaned         int64 `json:"loaned"`
	Reserved       int64 `json:"reserved"`
	Maintenance    int64 `json:"maintenance"`
	Inactive       int64 `json:"inactive"`

	// Loan statistics
	PendingPickup int64 `json:"pending_pickup"`
	ActiveLoans   int64 `json:"active_loans"`
	OverdueLoans  int64 `json:"overdue_loans"`
	Completed     int64 `json:"completed"`

	// Reservation statistics
	LiveReservations int64 `json:"live_reservations"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetStats returns the dashboard statistics. Overdue is computed from
// deadlines, not read from stored status.
func (s *DashboardService) GetStats(ctx context.Context, actor domain.Actor) (*DashboardStats, error) {
	if err := domain.Authorize(actor.Role, domain.ActionViewAllLoans); err != nil {
		return nil, err
	}

	equipment, err := s.store.Equipment().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.store.Loans().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := s.store.Reservations().CountLive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.engine.Now()
	overdue, err := s.engine.QueryOverdueLoans(ctx, now)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Available:        equipment[domain.EquipmentAvailable],
		Loaned:           equipment[domain.EquipmentLoaned],
		Reserved:         equipment[domain.EquipmentReserved],
		Maintenance:      equipment[domain.EquipmentMaintenance],
		Inactive:         equipment[domain.EquipmentInactive],
		PendingPickup:    loans[domain.LoanPendingPickup],
		ActiveLoans:      loans[domain.LoanActive],
		OverdueLoans:     int64(len(overdue)),
		Completed:        loans[domain.LoanCompleted],
		LiveReservations: reservations,
		GeneratedAt:      now,
	}
	for _, n := range equipment {
		stats.TotalEquipment += n
	}
	return stats, nil
}

// SummaryReport represents the lending summary report
type SummaryReport struct {
	Stats        *DashboardStats       `json:"stats"`
	OverdueLoans []*LoanView           `json:"overdue_loans"`
	UsersByRole  map[domain.Role]int64 `json:"users_by_role"`
}

// GetSummaryReport returns the coordinator report: the dashboard
// stats plus the current overdue list and staffing breakdown.
func (s *DashboardService) GetSummaryReport(ctx context.Context, actor domain.Actor) (*SummaryReport, error) {
	if err := domain.Authorize(actor.Role, domain.ActionGenerateReports); err != nil {
		return nil, err
	}

	stats, err := s.GetStats(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.engine.Now()
	overdue, err := s.engine.QueryOverdueLoans(ctx, now)
	if err != nil {
		return nil, err
	}
	views := make([]*LoanView, 0, len(overdue))
	for _, l := range overdue {
		views = append(views, &LoanView{Loan: l, Overdue: true})
	}

	usersByRole := make(map[domain.Role]int64)
	for _, role := range []domain.Role{domain.RoleTechnician, domain.RoleFaculty, domain.RoleSecretary, domain.RoleCoordinator} {
		users, err := s.store.Users().ListByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		usersByRole[role] = int64(len(users))
	}

	return &SummaryReport{
		Stats:        stats,
		OverdueLoans: views,
		UsersByRole:  usersByRole,
	}, nil
}
