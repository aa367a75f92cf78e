package repositories

import (
	"context"

	"equipahub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// LoanRequestRepo handles bulk loan request data access
type LoanRequestRepo struct {
	db *gorm.DB
}

var _ LoanRequestRepository = (*LoanRequestRepo)(nil)

// Create creates a new bulk request
func (r *LoanRequestRepo) Create(ctx context.Context, req *models.LoanRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID gets a bulk request by ID
func (r *LoanRequestRepo) GetByID(ctx context.Context, id uint) (*models.LoanRequest, error) {
	var req models.LoanRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// Update saves all fields of the request
func (r *LoanRequestRepo) Update(ctx context.Context, req *models.LoanRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// List lists bulk requests with filters and pagination
func (r *LoanRequestRepo) List(ctx context.Context, filter LoanRequestFilter, offset, limit int) ([]*models.LoanRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.LoanRequest{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.RequesterID != 0 {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []*models.LoanRequest
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}
