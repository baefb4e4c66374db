package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/api/validators"
	"github.com/nyumbahq/nyumba-backend/internal/units"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

type createUnitRequest struct {
	UnitNumber   string           `json:"unit_number" validate:"required,max=50"`
	UnitTypeID   *uuid.UUID       `json:"unit_type_id,omitempty"`
	UnitTypeName *string          `json:"unit_type_name,omitempty" validate:"omitempty,max=100"`
	TypePrice    decimal.Decimal  `json:"type_price"`
	FloorNumber  *int             `json:"floor_number,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Features     []string         `json:"features,omitempty"`
	Status       *string          `json:"status,omitempty"`
}

type bulkGenerateRequest struct {
	UnitTypeName string           `json:"unit_type_name" validate:"required,max=100"`
	TypePrice    decimal.Decimal  `json:"type_price" validate:"required"`
	Prefix       string           `json:"prefix" validate:"max=20"`
	Start        int              `json:"start" validate:"min=0"`
	Count        int              `json:"count" validate:"required,min=1,max=500"`
	FloorNumber  *int             `json:"floor_number,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Features     []string         `json:"features,omitempty"`
}

type updateUnitRequest struct {
	UnitTypeID   *uuid.UUID       `json:"unit_type_id,omitempty"`
	UnitTypeName *string          `json:"unit_type_name,omitempty" validate:"omitempty,max=100"`
	TypePrice    *decimal.Decimal `json:"type_price,omitempty"`
	UnitNumber   *string          `json:"unit_number,omitempty" validate:"omitempty,max=50"`
	FloorNumber  *int             `json:"floor_number,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Features     *[]string        `json:"features,omitempty"`
}

func parseUnitStatus(raw *string) (*enums.UnitStatus, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	status, err := enums.ParseUnitStatus(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}

// CreateUnit adds one unit to a property.
func CreateUnit(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createUnitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseUnitStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := units.CreateUnitInput{
			UnitNumber:   validators.SanitizeString(body.UnitNumber, 50),
			UnitTypeID:   body.UnitTypeID,
			UnitTypeName: body.UnitTypeName,
			TypePrice:    body.TypePrice,
			FloorNumber:  body.FloorNumber,
			Price:        body.Price,
			Description:  body.Description,
			Features:     body.Features,
			Status:       status,
		}

		created, err := svc.Create(r.Context(), units.Actor{UserID: userID, Role: role}, propertyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// BulkGenerateUnits creates a numbered run of units in one transaction.
func BulkGenerateUnits(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkGenerateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg := units.BulkGenerateConfig{
			UnitTypeName: validators.SanitizeString(body.UnitTypeName, 100),
			TypePrice:    body.TypePrice,
			Prefix:       validators.SanitizeString(body.Prefix, 20),
			Start:        body.Start,
			Count:        body.Count,
			FloorNumber:  body.FloorNumber,
			Price:        body.Price,
			Features:     body.Features,
		}

		created, err := svc.BulkGenerate(r.Context(), units.Actor{UserID: userID, Role: role}, propertyID, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetUnit fetches one unit by id.
func GetUnit(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		id, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

// ListUnits returns a property's units, optionally filtered by status.
func ListUnits(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		propertyID, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters units.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseUnitStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		items, err := svc.ListByProperty(r.Context(), propertyID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// UpdateUnit applies a partial update to a unit.
func UpdateUnit(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateUnitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseUnitStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := units.UpdateUnitInput{
			UnitTypeID:   body.UnitTypeID,
			UnitTypeName: body.UnitTypeName,
			TypePrice:    body.TypePrice,
			UnitNumber:   body.UnitNumber,
			FloorNumber:  body.FloorNumber,
			Status:       status,
			Price:        body.Price,
			Description:  body.Description,
			Features:     body.Features,
		}

		updated, err := svc.Update(r.Context(), units.Actor{UserID: userID, Role: role}, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DeleteUnit removes a unit that has no active lease.
func DeleteUnit(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), units.Actor{UserID: userID, Role: role}, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// UploadUnitImage accepts a multipart image and stores it against the unit.
func UploadUnitImage(svc units.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "units service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "unitID")
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

		updated, err := svc.AttachImage(r.Context(), units.Actor{UserID: userID, Role: role}, id, header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
