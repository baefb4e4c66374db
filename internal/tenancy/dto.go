package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// TenancyDTO reports the outcome of an assignment.
type TenancyDTO struct {
	UnitID     uuid.UUID        `json:"unit_id"`
	PropertyID uuid.UUID        `json:"property_id"`
	TenantID   uuid.UUID        `json:"tenant_id"`
	UserID     uuid.UUID        `json:"user_id"`
	LeaseID    uuid.UUID        `json:"lease_id"`
	RentAmount decimal.Decimal  `json:"rent_amount"`
	UnitStatus enums.UnitStatus `json:"unit_status"`
	Reassigned bool             `json:"reassigned"`
	MoveInDate *time.Time       `json:"move_in_date,omitempty"`
}

// AssignOptions carries optional assignment details beyond the unit/user pair.
type AssignOptions struct {
	MoveInDate *time.Time
	RentAmount *decimal.Decimal

	IDNumber              *string
	EmploymentStatus      *string
	EmployerName          *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
}
