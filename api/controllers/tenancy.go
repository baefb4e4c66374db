package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/api/validators"
	"github.com/nyumbahq/nyumba-backend/internal/tenancy"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

type assignTenantRequest struct {
	UserID     uuid.UUID        `json:"user_id" validate:"required"`
	MoveInDate *time.Time       `json:"move_in_date,omitempty"`
	RentAmount *decimal.Decimal `json:"rent_amount,omitempty"`

	IDNumber              *string `json:"id_number,omitempty" validate:"omitempty,max=50"`
	EmploymentStatus      *string `json:"employment_status,omitempty" validate:"omitempty,max=100"`
	EmployerName          *string `json:"employer_name,omitempty" validate:"omitempty,max=200"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty" validate:"omitempty,max=200"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty" validate:"omitempty,max=30"`
}

// AssignTenant places a user into a unit, opening a lease and flipping the
// unit to occupied in one transaction.
func AssignTenant(svc tenancy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenancy service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitID, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignTenantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := tenancy.AssignOptions{
			MoveInDate:            body.MoveInDate,
			RentAmount:            body.RentAmount,
			IDNumber:              body.IDNumber,
			EmploymentStatus:      body.EmploymentStatus,
			EmployerName:          body.EmployerName,
			EmergencyContactName:  body.EmergencyContactName,
			EmergencyContactPhone: body.EmergencyContactPhone,
		}

		result, err := svc.AssignTenant(r.Context(), tenancy.Actor{UserID: userID, Role: role}, unitID, body.UserID, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VacateUnit closes the active lease on a unit and returns it to vacant.
func VacateUnit(svc tenancy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenancy service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitID, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VacateUnit(r.Context(), tenancy.Actor{UserID: userID, Role: role}, unitID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "vacated"})
	}
}
