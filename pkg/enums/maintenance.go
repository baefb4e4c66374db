package enums

import "fmt"

// MaintenanceStatus represents the maintenance_status enum in Postgres.
type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "open"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusResolved   MaintenanceStatus = "resolved"
	MaintenanceStatusClosed     MaintenanceStatus = "closed"
)

var validMaintenanceStatuses = []MaintenanceStatus{
	MaintenanceStatusOpen,
	MaintenanceStatusInProgress,
	MaintenanceStatusResolved,
	MaintenanceStatusClosed,
}

// String implements fmt.Stringer.
func (s MaintenanceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MaintenanceStatus.
func (s MaintenanceStatus) IsValid() bool {
	for _, candidate := range validMaintenanceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo enforces the open -> in_progress -> resolved -> closed
// progression; closing is allowed from any non-closed state.
func (s MaintenanceStatus) CanTransitionTo(next MaintenanceStatus) bool {
	if s == next {
		return false
	}
	switch next {
	case MaintenanceStatusInProgress:
		return s == MaintenanceStatusOpen
	case MaintenanceStatusResolved:
		return s == MaintenanceStatusOpen || s == MaintenanceStatusInProgress
	case MaintenanceStatusClosed:
		return s != MaintenanceStatusClosed
	case MaintenanceStatusOpen:
		return false
	}
	return false
}

// ParseMaintenanceStatus converts raw input into a MaintenanceStatus.
func ParseMaintenanceStatus(value string) (MaintenanceStatus, error) {
	for _, candidate := range validMaintenanceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid maintenance status %q", value)
}

// MaintenancePriority represents the maintenance_priority enum in Postgres.
type MaintenancePriority string

const (
	MaintenancePriorityLow    MaintenancePriority = "low"
	MaintenancePriorityMedium MaintenancePriority = "medium"
	MaintenancePriorityHigh   MaintenancePriority = "high"
	MaintenancePriorityUrgent MaintenancePriority = "urgent"
)

var validMaintenancePriorities = []MaintenancePriority{
	MaintenancePriorityLow,
	MaintenancePriorityMedium,
	MaintenancePriorityHigh,
	MaintenancePriorityUrgent,
}

// String implements fmt.Stringer.
func (p MaintenancePriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known MaintenancePriority.
func (p MaintenancePriority) IsValid() bool {
	for _, candidate := range validMaintenancePriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseMaintenancePriority converts raw input into a MaintenancePriority.
func ParseMaintenancePriority(value string) (MaintenancePriority, error) {
	for _, candidate := range validMaintenancePriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid maintenance priority %q", value)
}
