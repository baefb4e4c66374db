package users

import "github.com/nyumbahq/nyumba-backend/pkg/enums"

// DeriveUserType is the single source of truth for the user_type column.
// Every code path that writes a profile role must route the portal bucket
// through this function.
func DeriveUserType(role enums.UserRole) enums.UserType {
	switch role {
	case enums.UserRoleSuperAdmin:
		return enums.UserTypeSuperAdmin
	case enums.UserRolePropertyManager:
		return enums.UserTypePropertyManager
	default:
		return enums.UserTypeTenant
	}
}
