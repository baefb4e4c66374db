package properties

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
)

// PropertyDTO exposes property data in API responses.
type PropertyDTO struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Location       string     `json:"location"`
	Type           *string    `json:"type,omitempty"`
	NumberOfFloors int        `json:"number_of_floors"`
	Description    *string    `json:"description,omitempty"`
	Amenities      []string   `json:"amenities"`
	ImageURL       *string    `json:"image_url,omitempty"`
	UnitCount      int        `json:"unit_count,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PropertyList is a cursor page of properties.
type PropertyList struct {
	Items      []PropertyDTO `json:"items"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// CreatePropertyDTO holds creation-time data for a new property.
type CreatePropertyDTO struct {
	Name           string
	Location       string
	Type           *string
	NumberOfFloors *int
	Description    *string
	Amenities      []string
}

// FromModel maps the persisted property into a DTO.
func FromModel(m *models.Property) *PropertyDTO {
	if m == nil {
		return nil
	}
	dto := &PropertyDTO{
		ID:             m.ID,
		Name:           m.Name,
		Location:       m.Location,
		Type:           m.Type,
		NumberOfFloors: m.NumberOfFloors,
		Description:    m.Description,
		Amenities:      []string(m.Amenities),
		ImageURL:       m.ImageURL,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if dto.Amenities == nil {
		dto.Amenities = []string{}
	}
	return dto
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreatePropertyDTO) ToModel() *models.Property {
	model := &models.Property{
		Name:           c.Name,
		Location:       c.Location,
		Type:           c.Type,
		NumberOfFloors: 1,
		Description:    c.Description,
		Amenities:      pq.StringArray(c.Amenities),
	}
	if c.NumberOfFloors != nil {
		model.NumberOfFloors = *c.NumberOfFloors
	}
	if model.Amenities == nil {
		model.Amenities = pq.StringArray{}
	}
	return model
}
