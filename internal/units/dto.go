package units

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// UnitDTO exposes unit data in API responses. Status is normalized so the
// legacy available value never leaks out.
type UnitDTO struct {
	ID           uuid.UUID        `json:"id"`
	PropertyID   uuid.UUID        `json:"property_id"`
	UnitTypeID   *uuid.UUID       `json:"unit_type_id,omitempty"`
	UnitTypeName *string          `json:"unit_type_name,omitempty"`
	UnitNumber   string           `json:"unit_number"`
	FloorNumber  *int             `json:"floor_number,omitempty"`
	Status       enums.UnitStatus `json:"status"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	MonthlyRent  decimal.Decimal  `json:"monthly_rent"`
	Description  *string          `json:"description,omitempty"`
	Features     []string         `json:"features"`
	ImageURL     *string          `json:"image_url,omitempty"`
	TenantName   *string          `json:"tenant_name,omitempty"`
	TenantUserID *uuid.UUID       `json:"tenant_user_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// FromModel maps the persisted unit into a DTO.
func FromModel(m *models.Unit) *UnitDTO {
	if m == nil {
		return nil
	}
	dto := &UnitDTO{
		ID:          m.ID,
		PropertyID:  m.PropertyID,
		UnitTypeID:  m.UnitTypeID,
		UnitNumber:  m.UnitNumber,
		FloorNumber: m.FloorNumber,
		Status:      m.Status.Normalize(),
		Price:       m.Price,
		MonthlyRent: m.MonthlyRent(),
		Description: m.Description,
		Features:    []string(m.Features),
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.UnitType != nil {
		name := m.UnitType.Name
		dto.UnitTypeName = &name
	}
	if dto.Features == nil {
		dto.Features = []string{}
	}
	return dto
}
