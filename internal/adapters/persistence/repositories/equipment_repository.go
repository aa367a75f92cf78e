package repositories

import (
	"context"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/core/domain"

	"gorm.io/gorm"
)

// EquipmentRepo handles equipment data access
type EquipmentRepo struct {
	db *gorm.DB
}

var _ EquipmentRepository = (*EquipmentRepo)(nil)

// Create creates a new equipment unit
func (r *EquipmentRepo) Create(ctx context.Context, unit *models.EquipmentUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

// GetByID gets an equipment unit by ID
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint) (*models.EquipmentUnit, error) {
	var unit models.EquipmentUnit
	if err := r.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &unit, nil
}

// GetBySerial gets an equipment unit by serial number
func (r *EquipmentRepo) GetBySerial(ctx context.Context, serial string) (*models.EquipmentUnit, error) {
	var unit models.EquipmentUnit
	err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&unit).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &unit, nil
}

// Update saves all fields of the unit
func (r *EquipmentRepo) Update(ctx context.Context, unit *models.EquipmentUnit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

// UpdateStatus writes only the status column
func (r *EquipmentRepo) UpdateStatus(ctx context.Context, id uint, status domain.EquipmentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete soft-deletes the unit
func (r *EquipmentRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.EquipmentUnit{}, id).Error
}

// List lists equipment with filters and pagination
func (r *EquipmentRepo) List(ctx context.Context, filter EquipmentFilter, offset, limit int) ([]*models.EquipmentUnit, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.EquipmentUnit{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("brand LIKE ? OR model LIKE ? OR serial_number LIKE ?", like, like, like)
	}
	if filter.ClaimEligible {
		// Available for new claims: status available AND no live loan
		// AND no live reservation. A pending_pickup loan leaves the
		// unit marked available but still removes it from the pool.
		q = q.Where("status = ?", domain.EquipmentAvailable).
			Where("NOT EXISTS (SELECT 1 FROM loans l WHERE l.equipment_id = equipment.id AND l.status IN ?)",
				[]domain.LoanStatus{domain.LoanPendingPickup, domain.LoanActive}).
			Where("NOT EXISTS (SELECT 1 FROM reservations rs WHERE rs.equipment_id = equipment.id AND rs.status IN ?)",
				[]domain.ReservationStatus{domain.ReservationActive, domain.ReservationConfirmed})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var units []*models.EquipmentUnit
	err := q.Order("brand, model").Offset(offset).Limit(limit).Find(&units).Error
	return units, total, err
}

// CountByStatus returns unit counts grouped by status
func (r *EquipmentRepo) CountByStatus(ctx context.Context) (map[domain.EquipmentStatus]int64, error) {
	type row struct {
		Status domain.EquipmentStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.EquipmentStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
