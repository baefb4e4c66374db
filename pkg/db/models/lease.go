package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Lease ties a tenant to a unit. At most one active lease exists per unit,
// enforced by a partial unique index.
type Lease struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID     uuid.UUID         `gorm:"type:uuid;column:unit_id;not null;index"`
	TenantID   uuid.UUID         `gorm:"type:uuid;column:tenant_id;not null;index"`
	StartDate  time.Time         `gorm:"column:start_date;not null"`
	EndDate    *time.Time        `gorm:"column:end_date"`
	RentAmount decimal.Decimal   `gorm:"column:rent_amount;type:numeric(12,2);not null;default:0"`
	Status     enums.LeaseStatus `gorm:"column:status;type:lease_status;not null;default:'active'"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Tenant *Tenant `gorm:"foreignKey:TenantID"`
}

func (Lease) TableName() string { return "tenant_leases" }
