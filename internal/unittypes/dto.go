package unittypes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
)

// UnitTypeDTO exposes unit type data in API responses.
type UnitTypeDTO struct {
	ID           uuid.UUID       `json:"id"`
	PropertyID   uuid.UUID       `json:"property_id"`
	Name         string          `json:"name"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	UnitCount    int64           `json:"unit_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromModel maps the persisted unit type into a DTO.
func FromModel(m *models.UnitType) *UnitTypeDTO {
	if m == nil {
		return nil
	}
	return &UnitTypeDTO{
		ID:           m.ID,
		PropertyID:   m.PropertyID,
		Name:         m.Name,
		PricePerUnit: m.PricePerUnit,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
