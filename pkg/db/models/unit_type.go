package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitType groups units of a property that share layout and base pricing.
type UnitType struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID   uuid.UUID       `gorm:"type:uuid;column:property_id;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	PricePerUnit decimal.Decimal `gorm:"column:price_per_unit;type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (UnitType) TableName() string { return "property_unit_types" }
