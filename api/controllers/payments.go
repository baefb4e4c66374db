package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/api/responses"
	"github.com/nyumbahq/nyumba-backend/api/validators"
	"github.com/nyumbahq/nyumba-backend/internal/payments"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/period"
)

type upsertPaymentRequest struct {
	PropertyID  uuid.UUID        `json:"property_id" validate:"required"`
	UnitID      uuid.UUID        `json:"unit_id" validate:"required"`
	Month       string           `json:"month" validate:"required"`
	Amount      decimal.Decimal  `json:"amount" validate:"required"`
	AmountPaid  decimal.Decimal  `json:"amount_paid"`
	PaymentDate *time.Time       `json:"payment_date,omitempty"`
	Remarks     *string          `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type upsertBillRequest struct {
	UnitID     uuid.UUID       `json:"unit_id" validate:"required"`
	Month      string          `json:"month" validate:"required"`
	BillType   string          `json:"bill_type" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// monthFromQuery reads the month query parameter, defaulting to the current
// calendar month.
func monthFromQuery(r *http.Request) (period.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return period.Current(), nil
	}
	month, err := period.Parse(raw)
	if err != nil {
		return period.Month{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid month")
	}
	return month, nil
}

// ListUnitPayments returns a unit's rent rows for one month.
func ListUnitPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		unitID, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := monthFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByUnit(r.Context(), unitID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListPropertyPayments returns every rent row under a property for one month.
func ListPropertyPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		propertyID, err := pathUUID(r, "propertyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := monthFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByProperty(r.Context(), propertyID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// UpsertPayment creates or replaces the rent row for a unit and month.
func UpsertPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body upsertPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := period.Parse(strings.TrimSpace(body.Month))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid month"))
			return
		}

		input := payments.UpsertPaymentInput{
			PropertyID:  body.PropertyID,
			UnitID:      body.UnitID,
			Amount:      body.Amount,
			AmountPaid:  body.AmountPaid,
			PaymentDate: body.PaymentDate,
			Remarks:     body.Remarks,
		}

		result, err := svc.UpsertForMonth(r.Context(), payments.Actor{UserID: userID, Role: role}, month, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeletePayment removes a rent row.
func DeletePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), payments.Actor{UserID: userID, Role: role}, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListUnitBills returns a unit's utility bills for one month.
func ListUnitBills(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		unitID, err := pathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := monthFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListBills(r.Context(), unitID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// UpsertBill creates or replaces a utility bill for a unit, type, and month.
func UpsertBill(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body upsertBillRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := period.Parse(strings.TrimSpace(body.Month))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid month"))
			return
		}

		billType := enums.BillType(strings.TrimSpace(body.BillType))
		if !billType.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid bill_type"))
			return
		}

		input := payments.UpsertBillInput{
			UnitID:     body.UnitID,
			BillType:   billType,
			Amount:     body.Amount,
			PaidAmount: body.PaidAmount,
		}

		result, err := svc.UpsertBillForMonth(r.Context(), payments.Actor{UserID: userID, Role: role}, month, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeleteBill removes a utility bill row.
func DeleteBill(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "billID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBill(r.Context(), payments.Actor{UserID: userID, Role: role}, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
