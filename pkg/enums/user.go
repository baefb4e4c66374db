package enums

import "fmt"

// UserRole represents the canonical user_role enum in Postgres.
type UserRole string

const (
	UserRoleSuperAdmin      UserRole = "super_admin"
	UserRolePropertyManager UserRole = "property_manager"
	UserRoleTenant          UserRole = "tenant"
	UserRoleMaintenance     UserRole = "maintenance"
	UserRoleAccountant      UserRole = "accountant"
	UserRoleUnassigned      UserRole = "unassigned"
)

var validUserRoles = []UserRole{
	UserRoleSuperAdmin,
	UserRolePropertyManager,
	UserRoleTenant,
	UserRoleMaintenance,
	UserRoleAccountant,
	UserRoleUnassigned,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// UserType is the portal bucket derived from a role. It is never written
// directly; every writer goes through users.DeriveUserType.
type UserType string

const (
	UserTypeSuperAdmin      UserType = "super_admin"
	UserTypePropertyManager UserType = "property_manager"
	UserTypeTenant          UserType = "tenant"
)

var validUserTypes = []UserType{
	UserTypeSuperAdmin,
	UserTypePropertyManager,
	UserTypeTenant,
}

// String implements fmt.Stringer.
func (t UserType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known UserType.
func (t UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// UserStatus captures the profile lifecycle.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

var validUserStatuses = []UserStatus{
	UserStatusActive,
	UserStatusInactive,
	UserStatusSuspended,
	UserStatusPending,
}

// String implements fmt.Stringer.
func (s UserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UserStatus.
func (s UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}
