package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/internal/payments"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/period"
)

type stubPaymentsService struct {
	payment *payments.PaymentDTO
	bill    *payments.BillDTO
	err     error

	lastMonth period.Month
	lastBill  payments.UpsertBillInput
}

func (s *stubPaymentsService) ListByUnit(ctx context.Context, unitID uuid.UUID, month period.Month) ([]payments.PaymentDTO, error) {
	s.lastMonth = month
	return nil, s.err
}

func (s *stubPaymentsService) ListByProperty(ctx context.Context, propertyID uuid.UUID, month period.Month) ([]payments.PaymentDTO, error) {
	s.lastMonth = month
	return nil, s.err
}

func (s *stubPaymentsService) UpsertForMonth(ctx context.Context, actor payments.Actor, month period.Month, input payments.UpsertPaymentInput) (*payments.PaymentDTO, error) {
	s.lastMonth = month
	return s.payment, s.err
}

func (s *stubPaymentsService) Delete(ctx context.Context, actor payments.Actor, id uuid.UUID) error {
	return s.err
}

func (s *stubPaymentsService) ListBills(ctx context.Context, unitID uuid.UUID, month period.Month) ([]payments.BillDTO, error) {
	s.lastMonth = month
	return nil, s.err
}

func (s *stubPaymentsService) UpsertBillForMonth(ctx context.Context, actor payments.Actor, month period.Month, input payments.UpsertBillInput) (*payments.BillDTO, error) {
	s.lastMonth = month
	s.lastBill = input
	return s.bill, s.err
}

func (s *stubPaymentsService) DeleteBill(ctx context.Context, actor payments.Actor, id uuid.UUID) error {
	return s.err
}

func TestUpsertBillRejectsUnknownType(t *testing.T) {
	handler := UpsertBill(&stubPaymentsService{}, nil)

	payload := []byte(`{"unit_id":"` + uuid.NewString() + `","month":"2026-08","bill_type":"cable","amount":"1200"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/payments/bills", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpsertBillParsesMonthAndType(t *testing.T) {
	svc := &stubPaymentsService{bill: &payments.BillDTO{ID: uuid.New()}}
	handler := UpsertBill(svc, nil)

	payload := []byte(`{"unit_id":"` + uuid.NewString() + `","month":"2026-08","bill_type":"water","amount":"1200","paid_amount":"600"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/payments/bills", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, uuid.New(), enums.UserRoleSuperAdmin)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastMonth.String() != "2026-08" {
		t.Fatalf("expected month 2026-08 got %s", svc.lastMonth)
	}
	if svc.lastBill.BillType != enums.BillTypeWater {
		t.Fatalf("expected water bill got %s", svc.lastBill.BillType)
	}
}

func TestListUnitPaymentsInvalidMonth(t *testing.T) {
	handler := ListUnitPayments(&stubPaymentsService{}, nil)

	unitID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/units/"+unitID+"/payments?month=august", nil)
	req = withPathParam(req, "unitID", unitID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestListUnitPaymentsDefaultsToCurrentMonth(t *testing.T) {
	svc := &stubPaymentsService{}
	handler := ListUnitPayments(svc, nil)

	unitID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/units/"+unitID+"/payments", nil)
	req = withPathParam(req, "unitID", unitID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastMonth != period.Current() {
		t.Fatalf("expected current month got %s", svc.lastMonth)
	}
}
