package repositories

import (
	"context"
	"errors"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/core/domain"

	"gorm.io/gorm"
)

// LoanRepo handles loan data access
type LoanRepo struct {
	db *gorm.DB
}

var _ LoanRepository = (*LoanRepo)(nil)

// Create creates a new loan
func (r *LoanRepo) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID
func (r *LoanRepo) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &loan, nil
}

// GetByIdempotencyKey returns the loan created under the given key, or
// nil when the key was never used.
func (r *LoanRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &loan, nil
}

// Update saves all fields of the loan
func (r *LoanRepo) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// List lists loans with filters and pagination
func (r *LoanRepo) List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Loan{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BorrowerID != 0 {
		q = q.Where("borrower_id = ?", filter.BorrowerID)
	}
	if filter.EquipmentID != 0 {
		q = q.Where("equipment_id = ?", filter.EquipmentID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loans []*models.Loan
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&loans).Error
	return loans, total, err
}

// LiveByEquipment returns the pending/active loan holding the unit, or
// nil when there is none.
func (r *LoanRepo) LiveByEquipment(ctx context.Context, equipmentID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND status IN ?", equipmentID,
			[]domain.LoanStatus{domain.LoanPendingPickup, domain.LoanActive}).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &loan, nil
}

// LiveByBorrower returns all pending/active loans of a borrower
func (r *LoanRepo) LiveByBorrower(ctx context.Context, borrowerID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status IN ?", borrowerID,
			[]domain.LoanStatus{domain.LoanPendingPickup, domain.LoanActive}).
		Find(&loans).Error
	return loans, err
}

// ListLive returns all pending/active loans (sweep input)
func (r *LoanRepo) ListLive(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.LoanStatus{domain.LoanPendingPickup, domain.LoanActive}).
		Order("created_at").
		Find(&loans).Error
	return loans, err
}

// CountByStatus returns loan counts grouped by stored status
func (r *LoanRepo) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error) {
	type row struct {
		Status domain.LoanStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.LoanStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
