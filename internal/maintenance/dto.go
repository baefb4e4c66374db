package maintenance

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// RequestDTO is the transport shape of a maintenance ticket.
type RequestDTO struct {
	ID          uuid.UUID                 `json:"id"`
	PropertyID  uuid.UUID                 `json:"property_id"`
	UnitID      *uuid.UUID                `json:"unit_id,omitempty"`
	TenantID    *uuid.UUID                `json:"tenant_id,omitempty"`
	Title       string                    `json:"title"`
	Description *string                   `json:"description,omitempty"`
	Category    *string                   `json:"category,omitempty"`
	Priority    enums.MaintenancePriority `json:"priority"`
	Status      enums.MaintenanceStatus   `json:"status"`
	AssignedTo  *uuid.UUID                `json:"assigned_to,omitempty"`
	Blocking    bool                      `json:"blocking"`
	ResolvedAt  *time.Time                `json:"resolved_at,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// RequestList is a cursor page of tickets.
type RequestList struct {
	Items      []RequestDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

func fromModel(m *models.MaintenanceRequest) *RequestDTO {
	if m == nil {
		return nil
	}
	return &RequestDTO{
		ID:          m.ID,
		PropertyID:  m.PropertyID,
		UnitID:      m.UnitID,
		TenantID:    m.TenantID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Priority:    m.Priority,
		Status:      m.Status,
		AssignedTo:  m.AssignedTo,
		Blocking:    m.Blocking,
		ResolvedAt:  m.ResolvedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
