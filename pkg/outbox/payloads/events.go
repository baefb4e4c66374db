package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// TenancyAssignedEvent signals a tenant was placed into a unit.
type TenancyAssignedEvent struct {
	UnitID     uuid.UUID  `json:"unit_id"`
	PropertyID uuid.UUID  `json:"property_id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	UserID     uuid.UUID  `json:"user_id"`
	LeaseID    uuid.UUID  `json:"lease_id"`
	RentAmount string     `json:"rent_amount"`
	Reassigned bool       `json:"reassigned"`
	MoveInDate *time.Time `json:"move_in_date,omitempty"`
}

// TenancyVacatedEvent is emitted when a unit is vacated.
type TenancyVacatedEvent struct {
	UnitID     uuid.UUID `json:"unit_id"`
	PropertyID uuid.UUID `json:"property_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	LeaseID    uuid.UUID `json:"lease_id"`
	VacatedAt  time.Time `json:"vacated_at"`
}

// RoleAssignedEvent is emitted after a profile role change commits.
type RoleAssignedEvent struct {
	UserID       uuid.UUID      `json:"user_id"`
	Email        string         `json:"email"`
	FirstName    string         `json:"first_name"`
	Role         enums.UserRole `json:"role"`
	UserType     enums.UserType `json:"user_type"`
	PreviousRole enums.UserRole `json:"previous_role"`
}

// RoleUnassignedEvent reports a profile dropped to unassigned, with the
// auxiliary rows removed in the same transaction.
type RoleUnassignedEvent struct {
	UserID       uuid.UUID      `json:"user_id"`
	PreviousRole enums.UserRole `json:"previous_role"`
	RemovedRows  []string       `json:"removed_rows,omitempty"`
}

// UnitStatusChangedEvent records a unit status transition.
type UnitStatusChangedEvent struct {
	UnitID     uuid.UUID        `json:"unit_id"`
	PropertyID uuid.UUID        `json:"property_id"`
	From       enums.UnitStatus `json:"from"`
	To         enums.UnitStatus `json:"to"`
	Reason     string           `json:"reason,omitempty"`
}

// UserSuspendedEvent is emitted when a profile is suspended.
type UserSuspendedEvent struct {
	UserID      uuid.UUID      `json:"user_id"`
	Role        enums.UserRole `json:"role"`
	SuspendedAt time.Time      `json:"suspended_at"`
}

// PropertyDeletedEvent lets consumers sweep rows the FK cascade cannot see.
type PropertyDeletedEvent struct {
	PropertyID uuid.UUID `json:"property_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}
