package enums

import "fmt"

// UnitStatus represents the unit_status enum in Postgres.
type UnitStatus string

const (
	UnitStatusVacant      UnitStatus = "vacant"
	UnitStatusOccupied    UnitStatus = "occupied"
	UnitStatusBooked      UnitStatus = "booked"
	UnitStatusMaintenance UnitStatus = "maintenance"

	// UnitStatusAvailable predates the vacant/booked split. Rows carrying it
	// are read as vacant and rewritten on the next status change.
	UnitStatusAvailable UnitStatus = "available"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusVacant,
	UnitStatusOccupied,
	UnitStatusBooked,
	UnitStatusMaintenance,
	UnitStatusAvailable,
}

// String implements fmt.Stringer.
func (s UnitStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UnitStatus.
func (s UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Normalize maps the legacy available value onto vacant.
func (s UnitStatus) Normalize() UnitStatus {
	if s == UnitStatusAvailable {
		return UnitStatusVacant
	}
	return s
}

// IsOccupiable reports whether a tenant can be assigned into the unit.
func (s UnitStatus) IsOccupiable() bool {
	switch s.Normalize() {
	case UnitStatusVacant, UnitStatusBooked:
		return true
	}
	return false
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
