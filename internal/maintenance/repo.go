package maintenance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

// ListFilters narrows ticket listings.
type ListFilters struct {
	PropertyID *uuid.UUID
	AssignedTo *uuid.UUID
	Status     *enums.MaintenanceStatus
}

// Repository defines persistence for maintenance tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.MaintenanceRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.MaintenanceRequest, *string, error)
	Update(ctx context.Context, request *models.MaintenanceRequest) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CountBlockingOpenForUnit(ctx context.Context, unitID, excludeID uuid.UUID) (int64, error)
	UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error
	UnitHasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a maintenance repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	var request models.MaintenanceRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.MaintenanceRequest, *string, error) {
	query := r.db.WithContext(ctx).Model(&models.MaintenanceRequest{})
	if filters.PropertyID != nil {
		query = query.Where("property_id = ?", *filters.PropertyID)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", filters.Status.String())
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.MaintenanceRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		next = &encoded
	}
	return rows, next, nil
}

func (r *repository) Update(ctx context.Context, request *models.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MaintenanceRequest{})
	return res.RowsAffected, res.Error
}

// CountBlockingOpenForUnit counts unfinished blocking tickets on the unit,
// excluding the one being updated. A unit leaves maintenance status only
// when this drops to zero.
func (r *repository) CountBlockingOpenForUnit(ctx context.Context, unitID, excludeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MaintenanceRequest{}).
		Where("unit_id = ? AND blocking = ? AND status IN ?", unitID, true,
			[]string{enums.MaintenanceStatusOpen.String(), enums.MaintenanceStatusInProgress.String()}).
		Where("id <> ?", excludeID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ?", unitID).
		Update("status", status.String()).Error
}

func (r *repository) UnitHasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("unit_id = ? AND status = ?", unitID, enums.LeaseStatusActive.String()).
		Count(&count).Error
	return count > 0, err
}
