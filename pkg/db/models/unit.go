package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Unit is a rentable unit inside a property. Price overrides the unit type
// price when set.
type Unit struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID  uuid.UUID        `gorm:"type:uuid;column:property_id;not null;uniqueIndex:idx_units_property_number"`
	UnitTypeID  *uuid.UUID       `gorm:"type:uuid;column:unit_type_id"`
	UnitNumber  string           `gorm:"column:unit_number;not null;uniqueIndex:idx_units_property_number"`
	FloorNumber *int             `gorm:"column:floor_number"`
	Status      enums.UnitStatus `gorm:"column:status;type:unit_status;not null;default:'vacant'"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Description *string          `gorm:"column:description"`
	Features    pq.StringArray   `gorm:"type:text[];column:features;not null;default:ARRAY[]::text[]"`
	ImageURL    *string          `gorm:"column:image_url"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	UnitType *UnitType `gorm:"foreignKey:UnitTypeID"`
	Leases   []Lease   `gorm:"foreignKey:UnitID"`
}

// MonthlyRent resolves the effective rent: unit override else type price.
func (u Unit) MonthlyRent() decimal.Decimal {
	if u.Price != nil && !u.Price.IsZero() {
		return *u.Price
	}
	if u.UnitType != nil {
		return u.UnitType.PricePerUnit
	}
	return decimal.Zero
}
