package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// PaymentDTO is the transport shape of a rent payment row.
type PaymentDTO struct {
	ID          uuid.UUID           `json:"id"`
	PropertyID  uuid.UUID           `json:"property_id"`
	UnitID      uuid.UUID           `json:"unit_id"`
	Amount      decimal.Decimal     `json:"amount"`
	AmountPaid  decimal.Decimal     `json:"amount_paid"`
	Status      enums.PaymentStatus `json:"status"`
	DueDate     time.Time           `json:"due_date"`
	PaymentDate *time.Time          `json:"payment_date,omitempty"`
	Remarks     *string             `json:"remarks,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// BillDTO is the transport shape of a utility bill row.
type BillDTO struct {
	ID              uuid.UUID           `json:"id"`
	UnitID          uuid.UUID           `json:"unit_id"`
	BillType        enums.BillType      `json:"bill_type"`
	Amount          decimal.Decimal     `json:"amount"`
	PaidAmount      decimal.Decimal     `json:"paid_amount"`
	Status          enums.PaymentStatus `json:"status"`
	BillPeriodStart time.Time           `json:"bill_period_start"`
	BillPeriodEnd   *time.Time          `json:"bill_period_end,omitempty"`
}

func paymentFromModel(m *models.RentPayment) *PaymentDTO {
	if m == nil {
		return nil
	}
	return &PaymentDTO{
		ID:          m.ID,
		PropertyID:  m.PropertyID,
		UnitID:      m.UnitID,
		Amount:      m.Amount,
		AmountPaid:  m.AmountPaid,
		Status:      m.Status,
		DueDate:     m.DueDate,
		PaymentDate: m.PaymentDate,
		Remarks:     m.Remarks,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func billFromModel(m *models.Bill) *BillDTO {
	if m == nil {
		return nil
	}
	return &BillDTO{
		ID:              m.ID,
		UnitID:          m.UnitID,
		BillType:        m.BillType,
		Amount:          m.Amount,
		PaidAmount:      m.PaidAmount,
		Status:          m.Status,
		BillPeriodStart: m.BillPeriodStart,
		BillPeriodEnd:   m.BillPeriodEnd,
	}
}
