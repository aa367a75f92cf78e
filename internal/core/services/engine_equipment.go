package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"equipahub/internal/adapters/persistence/models"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/core/domain"
)

// CreateEquipmentInput represents equipment registration input
type CreateEquipmentInput struct {
	Brand           string               `json:"brand" validate:"required"`
	Model           string               `json:"model" validate:"required"`
	Type            domain.EquipmentType `json:"type" validate:"required"`
	SerialNumber    string               `json:"serial_number" validate:"required"`
	AcquisitionDate time.Time            `json:"acquisition_date"`
	Location        string               `json:"location,omitempty"`
	Description     string               `json:"description,omitempty"`
}

// CreateEquipment registers a new unit. Technician only; units start
// out available.
func (e *AllocationEngine) CreateEquipment(ctx context.Context, actor domain.Actor, input *CreateEquipmentInput) (*models.EquipmentUnit, error) {
	if err := domain.Authorize(actor.Role, domain.ActionCreateEquipment); err != nil {
		return nil, err
	}
	if input.Brand == "" || input.Model == "" || input.SerialNumber == "" {
		return nil, fmt.Errorf("%w: brand, model and serial number are required", domain.ErrInvalidInput)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown equipment type %q", domain.ErrInvalidInput, input.Type)
	}

	acquired := input.AcquisitionDate
	if acquired.IsZero() {
		acquired = e.clock.Now()
	}

	unit := &models.EquipmentUnit{
		Brand:           input.Brand,
		Model:           input.Model,
		Type:            input.Type,
		Status:          domain.EquipmentAvailable,
		SerialNumber:    input.SerialNumber,
		AcquisitionDate: acquired,
		Location:        input.Location,
		Description:     input.Description,
	}

	err := e.store.WithTx(ctx, func(tx repositories.Store) error {
		_, err := tx.Equipment().GetBySerial(ctx, input.SerialNumber)
		if err == nil {
			return domain.ErrSerialExists
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return tx.Equipment().Create(ctx, unit)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Equipment registered: %s (serial %s)", unit.FullName(), unit.SerialNumber)
	return unit, nil
}

// UpdateEquipmentInput represents equipment edit input; nil fields are
// left untouched. Status is never editable here.
type UpdateEquipmentInput struct {
	Brand           *string               `json:"brand,omitempty"`
	Model           *string               `json:"model,omitempty"`
	Type            *domain.EquipmentType `json:"type,omitempty"`
	SerialNumber    *string               `json:"serial_number,omitempty"`
	AcquisitionDate *time.Time            `json:"acquisition_date,omitempty"`
	Location        *string               `json:"location,omitempty"`
	Description     *string               `json:"description,omitempty"`
}

// UpdateEquipment edits descriptive fields of a unit
func (e *AllocationEngine) UpdateEquipment(ctx context.Context, actor domain.Actor, id uint, input *UpdateEquipmentInput) (*models.EquipmentUnit, error) {
	if err := domain.Authorize(actor.Role, domain.ActionEditEquipment); err != nil {
		return nil, err
	}

	var unit *models.EquipmentUnit
	err := e.store.WithUnitLock(ctx, id, func(tx repositories.Store) error {
		u, err := tx.Equipment().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if input.SerialNumber != nil && *input.SerialNumber != u.SerialNumber {
			other, err := tx.Equipment().GetBySerial(ctx, *input.SerialNumber)
			if err == nil && other.ID != u.ID {
				return domain.ErrSerialExists
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			u.SerialNumber = *input.SerialNumber
		}
		if input.Brand != nil {
			u.Brand = *input.Brand
		}
		if input.Model != nil {
			u.Model = *input.Model
		}
		if input.Type != nil {
			if !input.Type.Valid() {
				return fmt.Errorf("%w: unknown equipment type %q", domain.ErrInvalidInput, *input.Type)
			}
			u.Type = *input.Type
		}
		if input.AcquisitionDate != nil {
			u.AcquisitionDate = *input.AcquisitionDate
		}
		if input.Location != nil {
			u.Location = *input.Location
		}
		if input.Description != nil {
			u.Description = *input.Description
		}
		if err := tx.Equipment().Update(ctx, u); err != nil {
			return err
		}
		unit = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// SetEquipmentMaintenance moves an available unit into maintenance.
// Units holding a live claim must be resolved first.
func (e *AllocationEngine) SetEquipmentMaintenance(ctx context.Context, actor domain.Actor, id uint) (*models.EquipmentUnit, error) {
	return e.setOutOfService(ctx, actor, id, domain.EquipmentMaintenance)
}

// SetEquipmentInactive retires a unit from circulation.
func (e *AllocationEngine) SetEquipmentInactive(ctx context.Context, actor domain.Actor, id uint) (*models.EquipmentUnit, error) {
	return e.setOutOfService(ctx, actor, id, domain.EquipmentInactive)
}

func (e *AllocationEngine) setOutOfService(ctx context.Context, actor domain.Actor, id uint, target domain.EquipmentStatus) (*models.EquipmentUnit, error) {
	if err := domain.Authorize(actor.Role, domain.ActionToggleEquipmentActive); err != nil {
		return nil, err
	}

	var unit *models.EquipmentUnit
	err := e.store.WithUnitLock(ctx, id, func(tx repositories.Store) error {
		u, err := tx.Equipment().GetByID(ctx, id)
		if err != nil {
			return err
		}
		// maintenance/inactive are reachable from available only; an
		// active claim must be resolved first.
		if u.Status != domain.EquipmentAvailable {
			return &domain.InvalidTransitionError{Entity: "equipment", From: string(u.Status), To: string(target)}
		}
		if err := e.ensureNoLiveClaims(ctx, tx, u.ID); err != nil {
			return err
		}
		u.Status = target
		if err := tx.Equipment().Update(ctx, u); err != nil {
			return err
		}
		unit = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔧 Equipment %d → %s", id, target)
	return unit, nil
}

// SetEquipmentAvailable returns a maintenance/inactive unit to service
func (e *AllocationEngine) SetEquipmentAvailable(ctx context.Context, actor domain.Actor, id uint) (*models.EquipmentUnit, error) {
	if err := domain.Authorize(actor.Role, domain.ActionToggleEquipmentActive); err != nil {
		return nil, err
	}

	var unit *models.EquipmentUnit
	err := e.store.WithUnitLock(ctx, id, func(tx repositories.Store) error {
		u, err := tx.Equipment().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Status != domain.EquipmentMaintenance && u.Status != domain.EquipmentInactive {
			return &domain.InvalidTransitionError{Entity: "equipment", From: string(u.Status), To: string(domain.EquipmentAvailable)}
		}
		u.Status = domain.EquipmentAvailable
		if err := tx.Equipment().Update(ctx, u); err != nil {
			return err
		}
		unit = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// DeleteEquipment removes a unit. Refused while any claim is live or
// the unit is loaned/reserved.
func (e *AllocationEngine) DeleteEquipment(ctx context.Context, actor domain.Actor, id uint) error {
	if err := domain.Authorize(actor.Role, domain.ActionDeleteEquipment); err != nil {
		return err
	}

	return e.store.WithUnitLock(ctx, id, func(tx repositories.Store) error {
		u, err := tx.Equipment().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Status == domain.EquipmentLoaned || u.Status == domain.EquipmentReserved {
			return &domain.UnitBusyError{EquipmentID: id}
		}
		if err := e.ensureNoLiveClaims(ctx, tx, id); err != nil {
			return err
		}
		return tx.Equipment().Delete(ctx, id)
	})
}

// GetEquipment returns one unit
func (e *AllocationEngine) GetEquipment(ctx context.Context, id uint) (*models.EquipmentUnit, error) {
	return e.store.Equipment().GetByID(ctx, id)
}

// ListEquipment lists units; the ClaimEligible filter yields the pool
// offered for new claims.
func (e *AllocationEngine) ListEquipment(ctx context.Context, filter repositories.EquipmentFilter, offset, limit int) ([]*models.EquipmentUnit, int64, error) {
	return e.store.Equipment().List(ctx, filter, offset, limit)
}

// ensureNoLiveClaims fails with UnitBusy when a live loan or
// reservation references the unit.
func (e *AllocationEngine) ensureNoLiveClaims(ctx context.Context, tx repositories.Store, unitID uint) error {
	live, err := tx.Loans().LiveByEquipment(ctx, unitID)
	if err != nil {
		return err
	}
	if live != nil {
		return &domain.UnitBusyError{EquipmentID: unitID}
	}
	queue, err := tx.Reservations().QueueByEquipment(ctx, unitID)
	if err != nil {
		return err
	}
	if len(queue) > 0 {
		return &domain.UnitBusyError{EquipmentID: unitID}
	}
	return nil
}
