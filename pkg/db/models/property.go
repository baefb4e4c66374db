package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Property represents a managed building or compound.
type Property struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string         `gorm:"column:name;not null"`
	Location       string         `gorm:"column:location;not null"`
	Type           *string        `gorm:"column:type"`
	NumberOfFloors int            `gorm:"column:number_of_floors;not null;default:1"`
	Description    *string        `gorm:"column:description"`
	Amenities      pq.StringArray `gorm:"type:text[];column:amenities;not null;default:ARRAY[]::text[]"`
	ImageURL       *string        `gorm:"column:image_url"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	UnitTypes []UnitType `gorm:"foreignKey:PropertyID"`
	Units     []Unit     `gorm:"foreignKey:PropertyID"`
}
