package unittypes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
)

// Repository handles unit type persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to unit type operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a unit type by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.UnitType, error) {
	var unitType models.UnitType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&unitType).Error; err != nil {
		return nil, err
	}
	return &unitType, nil
}

// ListByProperty returns the property's unit types ordered by creation.
func (r *Repository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.UnitType, error) {
	var rows []models.UnitType
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOrCreate resolves a unit type by case-insensitive name within the
// property. Matching is first-match-wins ordered by created_at, and an
// existing type keeps its price; the provided price only seeds new rows.
// Concurrent misses can still insert duplicate names, which is tolerated.
func (r *Repository) FindOrCreate(ctx context.Context, propertyID uuid.UUID, name string, price decimal.Decimal) (*models.UnitType, error) {
	trimmed := strings.TrimSpace(name)

	var existing models.UnitType
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND LOWER(name) = LOWER(?)", propertyID, trimmed).
		Order("created_at ASC, id ASC").
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	unitType := models.UnitType{
		ID:           uuid.New(),
		PropertyID:   propertyID,
		Name:         trimmed,
		PricePerUnit: price,
	}
	if err := r.db.WithContext(ctx).Create(&unitType).Error; err != nil {
		return nil, err
	}
	return &unitType, nil
}

// FindOrCreateTx runs FindOrCreate inside the caller's transaction so unit
// generation can resolve its type atomically with the insert.
func (r *Repository) FindOrCreateTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, name string, price decimal.Decimal) (*models.UnitType, error) {
	return r.WithTx(tx).FindOrCreate(ctx, propertyID, name, price)
}

// Update saves the provided unit type.
func (r *Repository) Update(ctx context.Context, unitType *models.UnitType) error {
	return r.db.WithContext(ctx).Save(unitType).Error
}

// Delete removes a unit type row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.UnitType{}).Error
}

// CountUnits reports how many units reference the type.
func (r *Repository) CountUnits(ctx context.Context, unitTypeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("unit_type_id = ?", unitTypeID).
		Count(&count).Error
	return count, err
}
