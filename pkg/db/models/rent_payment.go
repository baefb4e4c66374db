package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// RentPayment records the expected and collected rent for a unit and month.
// DueDate anchors the month the payment belongs to.
type RentPayment struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID  uuid.UUID           `gorm:"type:uuid;column:property_id;not null;index"`
	UnitID      uuid.UUID           `gorm:"type:uuid;column:unit_id;not null;index"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	AmountPaid  decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	Status      enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'unpaid'"`
	DueDate     time.Time           `gorm:"column:due_date;not null;index"`
	PaymentDate *time.Time          `gorm:"column:payment_date"`
	Remarks     *string             `gorm:"column:remarks"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Bill records a utility charge scoped to a unit and billing period.
type Bill struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID          uuid.UUID           `gorm:"type:uuid;column:unit_id;not null;index"`
	BillType        enums.BillType      `gorm:"column:bill_type;type:bill_type;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	PaidAmount      decimal.Decimal     `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`
	Status          enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'unpaid'"`
	BillPeriodStart time.Time           `gorm:"column:bill_period_start;not null;index"`
	BillPeriodEnd   *time.Time          `gorm:"column:bill_period_end"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Bill) TableName() string { return "bills_and_utilities" }
