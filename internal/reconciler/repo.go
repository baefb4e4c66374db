package reconciler

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Repository exposes the drift queries the sweeps run. Each query returns a
// bounded batch so a single sweep never holds long transactions; the ticker
// drains the remainder on subsequent cycles.
type Repository interface {
	ListOccupiedWithoutLease(ctx context.Context, limit int) ([]models.Unit, error)
	ListLeasedNotOccupied(ctx context.Context, limit int) ([]models.Unit, error)
	UpdateUnitStatusTx(tx *gorm.DB, unitID uuid.UUID, status enums.UnitStatus) error
	ListOrphanManagerRows(ctx context.Context, limit int) ([]models.PropertyManager, error)
	ListOrphanTenantRows(ctx context.Context, limit int) ([]models.Tenant, error)
	DeleteManagerRowTx(tx *gorm.DB, id uuid.UUID) error
	DeleteTenantRowTx(tx *gorm.DB, id uuid.UUID) error
	ListTenantsWithMissingUnit(ctx context.Context, limit int) ([]models.Tenant, error)
	ClearTenantUnitTx(tx *gorm.DB, tenantID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reconciler repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListOccupiedWithoutLease(ctx context.Context, limit int) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.UnitStatusOccupied).
		Where("NOT EXISTS (SELECT 1 FROM tenant_leases WHERE tenant_leases.unit_id = units.id AND tenant_leases.status = ?)",
			enums.LeaseStatusActive).
		Order("created_at ASC").
		Limit(limit).
		Find(&units).Error
	return units, err
}

func (r *repository) ListLeasedNotOccupied(ctx context.Context, limit int) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.UnitStatus{
			enums.UnitStatusVacant,
			enums.UnitStatusAvailable,
			enums.UnitStatusBooked,
		}).
		Where("EXISTS (SELECT 1 FROM tenant_leases WHERE tenant_leases.unit_id = units.id AND tenant_leases.status = ?)",
			enums.LeaseStatusActive).
		Order("created_at ASC").
		Limit(limit).
		Find(&units).Error
	return units, err
}

func (r *repository) UpdateUnitStatusTx(tx *gorm.DB, unitID uuid.UUID, status enums.UnitStatus) error {
	return tx.Model(&models.Unit{}).
		Where("id = ?", unitID).
		UpdateColumn("status", status).Error
}

func (r *repository) ListOrphanManagerRows(ctx context.Context, limit int) ([]models.PropertyManager, error) {
	var rows []models.PropertyManager
	err := r.db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.id = property_managers.user_id").
		Where("profiles.role <> ?", enums.UserRolePropertyManager).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListOrphanTenantRows(ctx context.Context, limit int) ([]models.Tenant, error) {
	var rows []models.Tenant
	err := r.db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.id = tenants.user_id").
		Where("profiles.role <> ?", enums.UserRoleTenant).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) DeleteManagerRowTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&models.PropertyManager{}).Error
}

func (r *repository) DeleteTenantRowTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&models.Tenant{}).Error
}

func (r *repository) ListTenantsWithMissingUnit(ctx context.Context, limit int) ([]models.Tenant, error) {
	var rows []models.Tenant
	err := r.db.WithContext(ctx).
		Where("unit_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM units WHERE units.id = tenants.unit_id)").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ClearTenantUnitTx(tx *gorm.DB, tenantID uuid.UUID) error {
	return tx.Model(&models.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{"unit_id": nil, "property_id": nil}).Error
}
