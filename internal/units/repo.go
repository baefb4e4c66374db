package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// UnitRow carries a unit joined to its active tenant, resolved server-side.
type UnitRow struct {
	models.Unit
	TenantName   *string
	TenantUserID *uuid.UUID
}

// ListFilters narrows unit listings.
type ListFilters struct {
	Status *enums.UnitStatus
}

// Repository defines persistence operations for the unit inventory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, unit *models.Unit) error
	CreateBatch(ctx context.Context, units []models.Unit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	ExistsNumber(ctx context.Context, propertyID uuid.UUID, unitNumber string) (bool, error)
	ExistingNumbers(ctx context.Context, propertyID uuid.UUID, numbers []string) ([]string, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID, filters ListFilters) ([]UnitRow, error)
	Update(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error)
	UpdateStatusTx(tx *gorm.DB, unitID uuid.UUID, status enums.UnitStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a unit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

// CreateBatch inserts units in a single statement so a violation rejects
// the whole batch.
func (r *repository) CreateBatch(ctx context.Context, units []models.Unit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Preload("UnitType").
		Where("id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) ExistsNumber(ctx context.Context, propertyID uuid.UUID, unitNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("property_id = ? AND unit_number = ?", propertyID, unitNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ExistingNumbers(ctx context.Context, propertyID uuid.UUID, numbers []string) ([]string, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	var taken []string
	err := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("property_id = ? AND unit_number IN ?", propertyID, numbers).
		Pluck("unit_number", &taken).Error
	if err != nil {
		return nil, err
	}
	return taken, nil
}

// ListByProperty loads the property's units with unit types and the active
// tenant resolved in SQL rather than by the caller.
func (r *repository) ListByProperty(ctx context.Context, propertyID uuid.UUID, filters ListFilters) ([]UnitRow, error) {
	query := r.db.WithContext(ctx).
		Preload("UnitType").
		Where("property_id = ?", propertyID)
	if filters.Status != nil {
		status := *filters.Status
		if status.Normalize() == enums.UnitStatusVacant {
			query = query.Where("status IN ?", []string{string(enums.UnitStatusVacant), string(enums.UnitStatusAvailable)})
		} else {
			query = query.Where("status = ?", status.String())
		}
	}

	var units []models.Unit
	if err := query.Order("unit_number ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return []UnitRow{}, nil
	}

	ids := make([]uuid.UUID, 0, len(units))
	for i := range units {
		ids = append(ids, units[i].ID)
	}

	type occupantRow struct {
		UnitID     uuid.UUID
		TenantName string
		UserID     uuid.UUID
	}
	var occupants []occupantRow
	err := r.db.WithContext(ctx).
		Table("tenant_leases AS l").
		Select("l.unit_id AS unit_id, p.first_name || ' ' || p.last_name AS tenant_name, t.user_id AS user_id").
		Joins("JOIN tenants t ON t.id = l.tenant_id").
		Joins("JOIN profiles p ON p.id = t.user_id").
		Where("l.status = ? AND l.unit_id IN ?", enums.LeaseStatusActive.String(), ids).
		Scan(&occupants).Error
	if err != nil {
		return nil, err
	}

	byUnit := make(map[uuid.UUID]occupantRow, len(occupants))
	for _, o := range occupants {
		byUnit[o.UnitID] = o
	}

	rows := make([]UnitRow, 0, len(units))
	for i := range units {
		row := UnitRow{Unit: units[i]}
		if o, ok := byUnit[units[i].ID]; ok {
			name := o.TenantName
			userID := o.UserID
			row.TenantName = &name
			row.TenantUserID = &userID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Unit{}).Error
}

func (r *repository) HasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("unit_id = ? AND status = ?", unitID, enums.LeaseStatusActive.String()).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatusTx sets the unit status using the caller's transaction.
func (r *repository) UpdateStatusTx(tx *gorm.DB, unitID uuid.UUID, status enums.UnitStatus) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Unit{}).
		Where("id = ?", unitID).
		Update("status", status.String()).Error
}
