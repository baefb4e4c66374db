package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/api/validators"
	"github.com/nyumbahq/nyumba-backend/internal/unittypes"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

type createUnitTypeRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"required"`
}

type updateUnitTypeRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit,omitempty"`
}

// ListUnitTypes returns the unit type catalog for a property.
func ListUnitTypes(svc unittypes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit types service unavailable"))
			return
		}

		propertyID, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByProperty(r.Context(), propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// CreateUnitType resolves a type by name within the property, creating it
// when absent. Pricing updates go through the update endpoint.
func CreateUnitType(svc unittypes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit types service unavailable"))
			return
		}

		propertyID, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createUnitTypeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.FindOrCreate(r.Context(), propertyID, strings.TrimSpace(body.Name), body.PricePerUnit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateUnitType renames or reprices a unit type.
func UpdateUnitType(svc unittypes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit types service unavailable"))
			return
		}

		id, err := pathUUID(r, "unitTypeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateUnitTypeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, unittypes.UpdateUnitTypeInput{
			Name:         body.Name,
			PricePerUnit: body.PricePerUnit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DeleteUnitType removes an unused unit type.
func DeleteUnitType(svc unittypes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unit types service unavailable"))
			return
		}

		id, err := pathUUID(r, "unitTypeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
