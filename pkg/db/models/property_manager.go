package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PropertyManager holds manager-specific profile extensions.
type PropertyManager struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID      `gorm:"type:uuid;column:user_id;not null;uniqueIndex"`
	LicenseNumber   *string        `gorm:"column:license_number"`
	ExperienceYears int            `gorm:"column:experience_years;not null;default:0"`
	Specializations pq.StringArray `gorm:"type:text[];column:specializations;not null;default:ARRAY[]::text[]"`
	IsAvailable     bool           `gorm:"column:is_available;not null;default:true"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// PropertyManagerAssignment maps a manager to a property they run.
type PropertyManagerAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID uuid.UUID `gorm:"type:uuid;column:property_id;not null;uniqueIndex:idx_pm_assignments_property_manager"`
	ManagerID  uuid.UUID `gorm:"type:uuid;column:manager_id;not null;uniqueIndex:idx_pm_assignments_property_manager"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
