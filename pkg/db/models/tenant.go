package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Tenant links a profile to its current (or former) residency.
type Tenant struct {
	ID                    uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID          `gorm:"type:uuid;column:user_id;not null;uniqueIndex"`
	PropertyID            *uuid.UUID         `gorm:"type:uuid;column:property_id"`
	UnitID                *uuid.UUID         `gorm:"type:uuid;column:unit_id"`
	Status                enums.TenantStatus `gorm:"column:status;type:tenant_status;not null;default:'active'"`
	MoveInDate            *time.Time         `gorm:"column:move_in_date"`
	IDNumber              *string            `gorm:"column:id_number"`
	EmploymentStatus      *string            `gorm:"column:employment_status"`
	EmployerName          *string            `gorm:"column:employer_name"`
	EmergencyContactName  *string            `gorm:"column:emergency_contact_name"`
	EmergencyContactPhone *string            `gorm:"column:emergency_contact_phone"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
