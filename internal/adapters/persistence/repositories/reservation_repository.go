package repositories

import (
	"context"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/core/domain"

	"gorm.io/gorm"
)

// ReservationRepo handles reservation data access
type ReservationRepo struct {
	db *gorm.DB
}

var _ ReservationRepository = (*ReservationRepo)(nil)

// Create creates a new reservation
func (r *ReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// GetByID gets a reservation by ID
func (r *ReservationRepo) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

// Update saves all fields of the reservation
func (r *ReservationRepo) Update(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

// List lists reservations with filters and pagination
func (r *ReservationRepo) List(ctx context.Context, filter ReservationFilter, offset, limit int) ([]*models.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Reservation{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.RequesterID != 0 {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.EquipmentID != 0 {
		q = q.Where("equipment_id = ?", filter.EquipmentID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []*models.Reservation
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// QueueByEquipment returns live reservations on the unit, earliest
// created first. Index 0 is the queue head.
func (r *ReservationRepo) QueueByEquipment(ctx context.Context, equipmentID uint) ([]*models.Reservation, error) {
	var list []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND status IN ?", equipmentID,
			[]domain.ReservationStatus{domain.ReservationActive, domain.ReservationConfirmed}).
		Order("created_at").
		Find(&list).Error
	return list, err
}

// ListActive returns all reservations in active status (sweep input)
func (r *ReservationRepo) ListActive(ctx context.Context) ([]*models.Reservation, error) {
	var list []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.ReservationActive).
		Order("created_at").
		Find(&list).Error
	return list, err
}

// ListActiveBefore returns active reservations whose expected pickup
// date falls before the given instant
func (r *ReservationRepo) ListActiveBefore(ctx context.Context, pickupBefore time.Time) ([]*models.Reservation, error) {
	var list []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expected_pickup_date < ?", domain.ReservationActive, pickupBefore).
		Order("created_at").
		Find(&list).Error
	return list, err
}

// CountLive counts active+confirmed reservations
func (r *ReservationRepo) CountLive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status IN ?", []domain.ReservationStatus{domain.ReservationActive, domain.ReservationConfirmed}).
		Count(&n).Error
	return n, err
}
