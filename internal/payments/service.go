package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/internal/audit"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/period"
)

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// UpsertPaymentInput carries the editable fields of a month's rent record.
// Status is never accepted from the caller; it is derived from the amounts.
type UpsertPaymentInput struct {
	PropertyID  uuid.UUID
	UnitID      uuid.UUID
	Amount      decimal.Decimal
	AmountPaid  decimal.Decimal
	PaymentDate *time.Time
	Remarks     *string
}

// UpsertBillInput mirrors UpsertPaymentInput for utility bills.
type UpsertBillInput struct {
	UnitID     uuid.UUID
	BillType   enums.BillType
	Amount     decimal.Decimal
	PaidAmount decimal.Decimal
}

// Service exposes rent payment and utility bill management.
type Service interface {
	ListByUnit(ctx context.Context, unitID uuid.UUID, month period.Month) ([]PaymentDTO, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID, month period.Month) ([]PaymentDTO, error)
	UpsertForMonth(ctx context.Context, actor Actor, month period.Month, input UpsertPaymentInput) (*PaymentDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	ListBills(ctx context.Context, unitID uuid.UUID, month period.Month) ([]BillDTO, error)
	UpsertBillForMonth(ctx context.Context, actor Actor, month period.Month, input UpsertBillInput) (*BillDTO, error)
	DeleteBill(ctx context.Context, actor Actor, id uuid.UUID) error
}

type service struct {
	repo   Repository
	audits audit.Recorder
}

// NewService builds a payments service. The audit recorder is optional.
func NewService(repo Repository, audits audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	return &service{repo: repo, audits: audits}, nil
}

// DeriveStatus computes the payment status from the amounts. Every write
// path routes through this so the stored status can never disagree with
// the numbers.
func DeriveStatus(amount, paid decimal.Decimal) enums.PaymentStatus {
	switch {
	case amount.IsPositive() && paid.GreaterThanOrEqual(amount):
		return enums.PaymentStatusPaid
	case paid.IsPositive():
		return enums.PaymentStatusPartial
	default:
		return enums.PaymentStatusUnpaid
	}
}

func (s *service) ListByUnit(ctx context.Context, unitID uuid.UUID, month period.Month) ([]PaymentDTO, error) {
	rows, err := s.repo.ListPaymentsByUnit(ctx, unitID, month.Start(), month.Next())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return paymentDTOs(rows), nil
}

func (s *service) ListByProperty(ctx context.Context, propertyID uuid.UUID, month period.Month) ([]PaymentDTO, error) {
	rows, err := s.repo.ListPaymentsByProperty(ctx, propertyID, month.Start(), month.Next())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return paymentDTOs(rows), nil
}

// UpsertForMonth writes the single rent record for a unit and month: the
// existing row in the window is updated, otherwise one is created with
// due_date at the month start.
func (s *service) UpsertForMonth(ctx context.Context, actor Actor, month period.Month, input UpsertPaymentInput) (*PaymentDTO, error) {
	if input.UnitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if input.Amount.IsNegative() || input.AmountPaid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts cannot be negative")
	}

	payment, err := s.repo.FindPaymentForWindow(ctx, input.UnitID, month.Start(), month.Next())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if input.PropertyID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id required to create a payment")
		}
		payment = &models.RentPayment{
			ID:         uuid.New(),
			PropertyID: input.PropertyID,
			UnitID:     input.UnitID,
			DueDate:    month.Start(),
		}
	}

	payment.Amount = input.Amount
	payment.AmountPaid = input.AmountPaid
	payment.Status = DeriveStatus(input.Amount, input.AmountPaid)
	payment.PaymentDate = input.PaymentDate
	if input.Remarks != nil {
		payment.Remarks = input.Remarks
	}

	if payment.CreatedAt.IsZero() {
		err = s.repo.CreatePayment(ctx, payment)
	} else {
		err = s.repo.UpdatePayment(ctx, payment)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
	}

	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "payment.upserted",
			TargetType: "rent_payment",
			TargetID:   payment.ID,
			Metadata:   map[string]any{"month": month.String(), "status": payment.Status},
		})
	}
	return paymentFromModel(payment), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	n, err := s.repo.DeletePayment(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "payment.deleted",
			TargetType: "rent_payment",
			TargetID:   id,
		})
	}
	return nil
}

func (s *service) ListBills(ctx context.Context, unitID uuid.UUID, month period.Month) ([]BillDTO, error) {
	rows, err := s.repo.ListBillsByUnit(ctx, unitID, month.Start(), month.Next())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bills")
	}
	out := make([]BillDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *billFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) UpsertBillForMonth(ctx context.Context, actor Actor, month period.Month, input UpsertBillInput) (*BillDTO, error) {
	if input.UnitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if !input.BillType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown bill type %q", input.BillType))
	}
	if input.Amount.IsNegative() || input.PaidAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts cannot be negative")
	}

	bill, err := s.repo.FindBillForWindow(ctx, input.UnitID, input.BillType.String(), month.Start(), month.Next())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
		}
		bill = &models.Bill{
			ID:              uuid.New(),
			UnitID:          input.UnitID,
			BillType:        input.BillType,
			BillPeriodStart: month.Start(),
		}
	}

	bill.Amount = input.Amount
	bill.PaidAmount = input.PaidAmount
	bill.Status = DeriveStatus(input.Amount, input.PaidAmount)

	if bill.CreatedAt.IsZero() {
		err = s.repo.CreateBill(ctx, bill)
	} else {
		err = s.repo.UpdateBill(ctx, bill)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bill")
	}

	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "bill.upserted",
			TargetType: "bill",
			TargetID:   bill.ID,
			Metadata:   map[string]any{"month": month.String(), "bill_type": bill.BillType},
		})
	}
	return billFromModel(bill), nil
}

func (s *service) DeleteBill(ctx context.Context, actor Actor, id uuid.UUID) error {
	n, err := s.repo.DeleteBill(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bill")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "bill.deleted",
			TargetType: "bill",
			TargetID:   id,
		})
	}
	return nil
}

func paymentDTOs(rows []models.RentPayment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *paymentFromModel(&rows[i]))
	}
	return out
}
