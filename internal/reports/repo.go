package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
)

// UnitRow is a unit with its type preloaded and the owning property's name
// resolved by the join.
type UnitRow struct {
	models.Unit
	PropertyName string
}

// Repository loads the raw rows a monthly report is assembled from.
type Repository interface {
	ListUnits(ctx context.Context, propertyID *uuid.UUID) ([]UnitRow, error)
	ListPayments(ctx context.Context, propertyID *uuid.UUID, start, end time.Time) ([]models.RentPayment, error)
	ListWaterBills(ctx context.Context, propertyID *uuid.UUID, start, end time.Time) ([]models.Bill, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListUnits(ctx context.Context, propertyID *uuid.UUID) ([]UnitRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Select("units.*, properties.name AS property_name").
		Joins("JOIN properties ON properties.id = units.property_id").
		Preload("UnitType")
	if propertyID != nil {
		query = query.Where("units.property_id = ?", *propertyID)
	}

	var rows []UnitRow
	if err := query.Order("properties.name, units.unit_number").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPayments(ctx context.Context, propertyID *uuid.UUID, start, end time.Time) ([]models.RentPayment, error) {
	query := r.db.WithContext(ctx).
		Where("due_date >= ? AND due_date < ?", start, end)
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	}

	var rows []models.RentPayment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListWaterBills(ctx context.Context, propertyID *uuid.UUID, start, end time.Time) ([]models.Bill, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("bill_type = ? AND bill_period_start >= ? AND bill_period_start < ?", "water", start, end)
	if propertyID != nil {
		query = query.
			Joins("JOIN units ON units.id = bills_and_utilities.unit_id").
			Where("units.property_id = ?", *propertyID)
	}

	var rows []models.Bill
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
