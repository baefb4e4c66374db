package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// MaintenanceRequest tracks a repair ticket raised against a unit or the
// property commons. Blocking requests flip the unit into maintenance status.
type MaintenanceRequest struct {
	ID          uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID  uuid.UUID                 `gorm:"type:uuid;column:property_id;not null;index"`
	UnitID      *uuid.UUID                `gorm:"type:uuid;column:unit_id;index"`
	TenantID    *uuid.UUID                `gorm:"type:uuid;column:tenant_id"`
	Title       string                    `gorm:"column:title;not null"`
	Description *string                   `gorm:"column:description"`
	Category    *string                   `gorm:"column:category"`
	Priority    enums.MaintenancePriority `gorm:"column:priority;type:maintenance_priority;not null;default:'medium'"`
	Status      enums.MaintenanceStatus   `gorm:"column:status;type:maintenance_status;not null;default:'open'"`
	AssignedTo  *uuid.UUID                `gorm:"type:uuid;column:assigned_to"`
	Blocking    bool                      `gorm:"column:blocking;not null;default:false"`
	ResolvedAt  *time.Time                `gorm:"column:resolved_at"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
