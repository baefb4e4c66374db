package properties

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

// Repository handles property persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to property operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new property row.
func (r *Repository) Create(ctx context.Context, dto CreatePropertyDTO) (*models.Property, error) {
	property := dto.ToModel()
	property.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

// FindByID loads a property by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// List returns a cursor page of properties, newest first. When managerID is
// set, only properties assigned to that manager are returned.
func (r *Repository) List(ctx context.Context, params pagination.Params, managerID *uuid.UUID) ([]models.Property, *string, error) {
	query := r.db.WithContext(ctx).Model(&models.Property{})
	if managerID != nil {
		query = query.
			Joins("JOIN property_manager_assignments pma ON pma.property_id = properties.id").
			Where("pma.manager_id = ?", *managerID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(properties.created_at < ?) OR (properties.created_at = ? AND properties.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Property
	err = query.
		Order("properties.created_at DESC, properties.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
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

// Update saves the provided property.
func (r *Repository) Update(ctx context.Context, property *models.Property) error {
	if property == nil {
		return fmt.Errorf("property is required")
	}
	return r.db.WithContext(ctx).Save(property).Error
}

// DeleteTx removes the property using the caller's transaction. Unit types
// and units go with it through the FK cascade.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Where("id = ?", id).Delete(&models.Property{}).Error
}

// CountUnits returns how many units the property holds.
func (r *Repository) CountUnits(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("property_id = ?", propertyID).
		Count(&count).Error
	return count, err
}

// AssignManager links a manager to a property. Repeated assignment is a
// no-op thanks to the composite unique index.
func (r *Repository) AssignManager(ctx context.Context, propertyID, managerID uuid.UUID) error {
	assignment := models.PropertyManagerAssignment{
		ID:         uuid.New(),
		PropertyID: propertyID,
		ManagerID:  managerID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignment).Error
}

// UnassignManager removes a manager assignment. Returns how many rows were
// deleted so callers can tell a missing assignment apart from success.
func (r *Repository) UnassignManager(ctx context.Context, propertyID, managerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("property_id = ? AND manager_id = ?", propertyID, managerID).
		Delete(&models.PropertyManagerAssignment{})
	return res.RowsAffected, res.Error
}

// ManagerProfileExists reports whether the user exists and currently holds
// the property_manager role.
func (r *Repository) ManagerProfileExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ? AND role = ?", userID, enums.UserRolePropertyManager).
		Count(&count).Error
	return count > 0, err
}
