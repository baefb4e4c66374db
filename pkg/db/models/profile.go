package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Profile is the canonical identity row. UserType is always derived from
// Role through users.DeriveUserType, never written independently.
type Profile struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FirstName    string           `gorm:"column:first_name;not null"`
	LastName     string           `gorm:"column:last_name;not null"`
	Phone        *string          `gorm:"column:phone"`
	Role         enums.UserRole   `gorm:"column:role;type:user_role;not null;default:'unassigned'"`
	UserType     enums.UserType   `gorm:"column:user_type;type:user_type;not null;default:'tenant'"`
	Status       enums.UserStatus `gorm:"column:status;type:user_status;not null;default:'active'"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
