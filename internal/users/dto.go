package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	Phone       *string          `json:"phone,omitempty"`
	Role        enums.UserRole   `json:"role"`
	UserType    enums.UserType   `json:"user_type"`
	Status      enums.UserStatus `json:"status"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	Manager     *ManagerDTO      `json:"manager,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ManagerDTO exposes the property manager extension row.
type ManagerDTO struct {
	LicenseNumber   *string  `json:"license_number,omitempty"`
	ExperienceYears int      `json:"experience_years"`
	Specializations []string `json:"specializations"`
	IsAvailable     bool     `json:"is_available"`
}

// UserList is a cursor page of users.
type UserList struct {
	Items      []UserDTO `json:"items"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

// CreateProfileDTO holds the data required to persist a new profile.
type CreateProfileDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Role         enums.UserRole
}

// ToModel prepares the GORM model, deriving the portal bucket from role.
func (c CreateProfileDTO) ToModel() *models.Profile {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUnassigned
	}
	return &models.Profile{
		ID:           uuid.New(),
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Phone:        c.Phone,
		Role:         role,
		UserType:     DeriveUserType(role),
		Status:       enums.UserStatusActive,
	}
}

// FromModel maps the persisted profile into a DTO.
func FromModel(m *models.Profile) *UserDTO {
	if m == nil {
		return nil
	}
	return &UserDTO{
		ID:          m.ID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Phone:       m.Phone,
		Role:        m.Role,
		UserType:    m.UserType,
		Status:      m.Status,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func managerFromModel(m *models.PropertyManager) *ManagerDTO {
	if m == nil {
		return nil
	}
	dto := &ManagerDTO{
		LicenseNumber:   m.LicenseNumber,
		ExperienceYears: m.ExperienceYears,
		Specializations: []string(m.Specializations),
		IsAvailable:     m.IsAvailable,
	}
	if dto.Specializations == nil {
		dto.Specializations = []string{}
	}
	return dto
}
