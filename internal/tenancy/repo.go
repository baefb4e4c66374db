package tenancy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Repository defines persistence operations for tenants and leases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error)
	FindActiveLeaseByUnit(ctx context.Context, unitID uuid.UUID) (*models.Lease, error)
	FindTenantByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error)
	FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	CreateLease(ctx context.Context, lease *models.Lease) error
	UpdateLease(ctx context.Context, lease *models.Lease) error
	UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tenancy repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Preload("UnitType").
		Where("id = ?", unitID).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) FindActiveLeaseByUnit(ctx context.Context, unitID uuid.UUID) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status = ?", unitID, enums.LeaseStatusActive.String()).
		First(&lease).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *repository) FindTenantByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

func (r *repository) CreateLease(ctx context.Context, lease *models.Lease) error {
	return r.db.WithContext(ctx).Create(lease).Error
}

func (r *repository) UpdateLease(ctx context.Context, lease *models.Lease) error {
	return r.db.WithContext(ctx).Save(lease).Error
}

func (r *repository) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ?", unitID).
		Update("status", status.String()).Error
}
