package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/api/validators"
	"github.com/nyumbahq/nyumba-backend/internal/properties"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

// 10 MiB cap on property and unit image uploads.
const maxImageUploadBytes = 10 << 20

type createPropertyRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Location       string   `json:"location" validate:"required,max=300"`
	Type           *string  `json:"type,omitempty"`
	NumberOfFloors *int     `json:"number_of_floors,omitempty" validate:"omitempty,min=0"`
	Description    *string  `json:"description,omitempty"`
	Amenities      []string `json:"amenities,omitempty"`
}

type updatePropertyRequest struct {
	Name           *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Location       *string   `json:"location,omitempty" validate:"omitempty,max=300"`
	Type           *string   `json:"type,omitempty"`
	NumberOfFloors *int      `json:"number_of_floors,omitempty" validate:"omitempty,min=0"`
	Description    *string   `json:"description,omitempty"`
	Amenities      *[]string `json:"amenities,omitempty"`
}

// CreateProperty handles new property registration.
func CreateProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPropertyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := properties.CreatePropertyDTO{
			Name:           validators.SanitizeString(body.Name, 200),
			Location:       validators.SanitizeString(body.Location, 300),
			Type:           body.Type,
			NumberOfFloors: body.NumberOfFloors,
			Description:    body.Description,
			Amenities:      body.Amenities,
		}

		created, err := svc.Create(r.Context(), properties.Actor{UserID: userID, Role: role}, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetProperty fetches a single property by id.
func GetProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		id, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}

// ListProperties returns a cursor page of properties.
func ListProperties(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

		result, err := svc.List(r.Context(), properties.Actor{UserID: userID, Role: role}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateProperty applies a partial update to a property.
func UpdateProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePropertyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := properties.UpdatePropertyInput{
			Name:           body.Name,
			Location:       body.Location,
			Type:           body.Type,
			NumberOfFloors: body.NumberOfFloors,
			Description:    body.Description,
			Amenities:      body.Amenities,
		}

		updated, err := svc.Update(r.Context(), properties.Actor{UserID: userID, Role: role}, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DeleteProperty removes a property and cascades through its units.
func DeleteProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), properties.Actor{UserID: userID, Role: role}, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type assignManagerRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// AssignPropertyManager puts the property under a manager's care.
func AssignPropertyManager(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignManagerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AssignManager(r.Context(), properties.Actor{UserID: userID, Role: role}, id, body.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "assigned"})
	}
}

// UnassignPropertyManager removes a manager from the property.
func UnassignPropertyManager(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		managerID, err := pathUUID(r, "managerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UnassignManager(r.Context(), properties.Actor{UserID: userID, Role: role}, id, managerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unassigned"})
	}
}

// UploadPropertyImage accepts a multipart image and stores it against the
// property.
func UploadPropertyImage(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "properties service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := readImageUpload(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		updated, err := svc.AttachImage(r.Context(), properties.Actor{UserID: userID, Role: role}, id, header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
