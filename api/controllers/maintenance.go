package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/api/validators"
	"github.com/nyumbahq/nyumba-backend/internal/maintenance"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type createMaintenanceRequest struct {
	PropertyID  uuid.UUID  `json:"property_id" validate:"required"`
	UnitID      *uuid.UUID `json:"unit_id,omitempty"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Priority    string     `json:"priority" validate:"required"`
	Blocking    bool       `json:"blocking"`
}

type updateMaintenanceRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Priority    *string    `json:"priority,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
}

type updateMaintenanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateMaintenanceRequest opens a new ticket.
func CreateMaintenanceRequest(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createMaintenanceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priority, err := enums.ParseMaintenancePriority(strings.TrimSpace(body.Priority))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
			return
		}

		input := maintenance.CreateRequestInput{
			PropertyID:  body.PropertyID,
			UnitID:      body.UnitID,
			TenantID:    body.TenantID,
			Title:       validators.SanitizeString(body.Title, 200),
			Description: body.Description,
			Category:    body.Category,
			Priority:    priority,
			Blocking:    body.Blocking,
		}

		created, err := svc.Create(r.Context(), maintenance.Actor{UserID: userID, Role: role}, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetMaintenanceRequest fetches one ticket.
func GetMaintenanceRequest(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
			return
		}

		id, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// ListMaintenanceRequests returns a cursor page of tickets with optional
// property, assignee, and status filters.
func ListMaintenanceRequests(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.MaxLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters maintenance.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("property")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property"))
				return
			}
			filters.PropertyID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("assignedTo")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignedTo"))
				return
			}
			filters.AssignedTo = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseMaintenanceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		result, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateMaintenanceRequest patches ticket fields other than status.
func UpdateMaintenanceRequest(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMaintenanceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := maintenance.UpdateRequestInput{
			Title:       body.Title,
			Description: body.Description,
			Category:    body.Category,
			AssignedTo:  body.AssignedTo,
		}
		if body.Priority != nil {
			priority, err := enums.ParseMaintenancePriority(strings.TrimSpace(*body.Priority))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			input.Priority = &priority
		}

		updated, err := svc.Update(r.Context(), maintenance.Actor{UserID: userID, Role: role}, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// UpdateMaintenanceStatus advances a ticket through its lifecycle. Illegal
// transitions come back as state conflicts from the service.
func UpdateMaintenanceStatus(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMaintenanceStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseMaintenanceStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), maintenance.Actor{UserID: userID, Role: role}, id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DeleteMaintenanceRequest removes a ticket.
func DeleteMaintenanceRequest(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), maintenance.Actor{UserID: userID, Role: role}, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
