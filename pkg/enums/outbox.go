package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateUnit     OutboxAggregateType = "unit"
	AggregateLease    OutboxAggregateType = "lease"
	AggregateProfile  OutboxAggregateType = "profile"
	AggregateProperty OutboxAggregateType = "property"
	AggregateTenant   OutboxAggregateType = "tenant"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateUnit,
	AggregateLease,
	AggregateProfile,
	AggregateProperty,
	AggregateTenant,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventTenancyAssigned   OutboxEventType = "tenancy_assigned"
	EventTenancyReassigned OutboxEventType = "tenancy_reassigned"
	EventTenancyVacated    OutboxEventType = "tenancy_vacated"
	EventRoleAssigned      OutboxEventType = "role_assigned"
	EventRoleUnassigned    OutboxEventType = "role_unassigned"
	EventUnitStatusChanged OutboxEventType = "unit_status_changed"
	EventUserSuspended     OutboxEventType = "user_suspended"
	EventPropertyDeleted   OutboxEventType = "property_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTenancyAssigned,
	EventTenancyReassigned,
	EventTenancyVacated,
	EventRoleAssigned,
	EventRoleUnassigned,
	EventUnitStatusChanged,
	EventUserSuspended,
	EventPropertyDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why an event landed in the dead-letter table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

// IsValid reports whether the value is a known OutboxDLQErrorReason.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeRoleAssignment NotificationType = "role_assignment"
	NotificationTypeTenancyChange  NotificationType = "tenancy_change"
	NotificationTypeMaintenance    NotificationType = "maintenance"
	NotificationTypeSystem         NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeRoleAssignment,
	NotificationTypeTenancyChange,
	NotificationTypeMaintenance,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
