package enums

import "fmt"

// PaymentStatus represents the rent_payment_status enum in Postgres.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPaid,
	PaymentStatusPartial,
	PaymentStatusUnpaid,
}

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// BillType distinguishes utility bills on a unit.
type BillType string

const (
	BillTypeWater       BillType = "water"
	BillTypeElectricity BillType = "electricity"
	BillTypeGarbage     BillType = "garbage"
	BillTypeService     BillType = "service"
)

var validBillTypes = []BillType{
	BillTypeWater,
	BillTypeElectricity,
	BillTypeGarbage,
	BillTypeService,
}

// String implements fmt.Stringer.
func (t BillType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known BillType.
func (t BillType) IsValid() bool {
	for _, candidate := range validBillTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ReportUnitStatus is the derived per-unit rent status in monthly reports.
type ReportUnitStatus string

const (
	ReportUnitStatusPaid    ReportUnitStatus = "paid"
	ReportUnitStatusPartial ReportUnitStatus = "partial"
	ReportUnitStatusUnpaid  ReportUnitStatus = "unpaid"
	ReportUnitStatusVacant  ReportUnitStatus = "vacant"
)

// String implements fmt.Stringer.
func (s ReportUnitStatus) String() string {
	return string(s)
}

// Label renders the human-facing remark text for the status.
func (s ReportUnitStatus) Label() string {
	switch s {
	case ReportUnitStatusPaid:
		return "Fully Paid"
	case ReportUnitStatusPartial:
		return "Partially Paid"
	case ReportUnitStatusUnpaid:
		return "Pending Payment"
	case ReportUnitStatusVacant:
		return "Vacant Unit"
	}
	return string(s)
}
