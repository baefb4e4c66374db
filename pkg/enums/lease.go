package enums

import "fmt"

// LeaseStatus represents the lease_status enum in Postgres.
type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusTerminated LeaseStatus = "terminated"
	LeaseStatusExpired    LeaseStatus = "expired"
)

var validLeaseStatuses = []LeaseStatus{
	LeaseStatusActive,
	LeaseStatusTerminated,
	LeaseStatusExpired,
}

// String implements fmt.Stringer.
func (s LeaseStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LeaseStatus.
func (s LeaseStatus) IsValid() bool {
	for _, candidate := range validLeaseStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLeaseStatus converts raw input into a LeaseStatus.
func ParseLeaseStatus(value string) (LeaseStatus, error) {
	for _, candidate := range validLeaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease status %q", value)
}

// TenantStatus captures the occupancy record lifecycle.
type TenantStatus string

const (
	TenantStatusActive TenantStatus = "active"
	TenantStatusFormer TenantStatus = "former"
)

var validTenantStatuses = []TenantStatus{
	TenantStatusActive,
	TenantStatusFormer,
}

// String implements fmt.Stringer.
func (s TenantStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TenantStatus.
func (s TenantStatus) IsValid() bool {
	for _, candidate := range validTenantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
