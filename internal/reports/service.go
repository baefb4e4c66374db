package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/period"
)

// Service assembles monthly rent-collection reports.
type Service interface {
	// Generate builds the report for one property, or across all
	// properties when propertyID is nil.
	Generate(ctx context.Context, propertyID *uuid.UUID, month period.Month) (*Report, error)
}

type service struct {
	repo Repository
}

// NewService builds a reports service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Generate(ctx context.Context, propertyID *uuid.UUID, month period.Month) (*Report, error) {
	start, end := month.Start(), month.Next()

	units, err := s.repo.ListUnits(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load units")
	}
	payments, err := s.repo.ListPayments(ctx, propertyID, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments")
	}
	bills, err := s.repo.ListWaterBills(ctx, propertyID, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load water bills")
	}

	paymentByUnit := make(map[uuid.UUID]*models.RentPayment, len(payments))
	for i := range payments {
		if _, seen := paymentByUnit[payments[i].UnitID]; !seen {
			paymentByUnit[payments[i].UnitID] = &payments[i]
		}
	}
	billByUnit := make(map[uuid.UUID]*models.Bill, len(bills))
	for i := range bills {
		if _, seen := billByUnit[bills[i].UnitID]; !seen {
			billByUnit[bills[i].UnitID] = &bills[i]
		}
	}

	report := &Report{Month: month.String(), Rows: make([]Row, 0, len(units))}
	summary := &report.Summary
	summary.ExpectedRent = decimal.Zero
	summary.CollectedRent = decimal.Zero
	summary.TotalArrears = decimal.Zero

	for i := range units {
		unit := &units[i]
		row := Row{
			UnitID:       unit.ID,
			UnitNumber:   unit.UnitNumber,
			PropertyID:   unit.PropertyID,
			PropertyName: unit.PropertyName,
			MonthlyRent:  decimal.Zero,
			RentPaid:     decimal.Zero,
			RentArrears:  decimal.Zero,
			WaterBill:    decimal.Zero,
			WaterPaid:    decimal.Zero,
		}
		if unit.UnitType != nil {
			row.UnitTypeName = &unit.UnitType.Name
		}

		if bill := billByUnit[unit.ID]; bill != nil {
			row.WaterBill = bill.Amount
			row.WaterPaid = bill.PaidAmount
		}

		summary.TotalUnits++
		if unit.Status.Normalize() != enums.UnitStatusOccupied {
			// Only occupied units accrue rent. Anything else lands in
			// the vacant bucket, whatever stale payment rows say.
			summary.VacantUnits++
			row.Status = enums.ReportUnitStatusVacant
			row.Remarks = row.Status.Label()
			report.Rows = append(report.Rows, row)
			continue
		}

		summary.OccupiedUnits++
		rent := unit.MonthlyRent()
		row.MonthlyRent = rent

		if payment := paymentByUnit[unit.ID]; payment != nil {
			row.RentPaid = payment.AmountPaid
			if payment.Remarks != nil {
				row.Remarks = *payment.Remarks
			}
		}

		switch {
		case rent.IsPositive() && row.RentPaid.GreaterThanOrEqual(rent):
			row.Status = enums.ReportUnitStatusPaid
		case row.RentPaid.IsPositive():
			row.Status = enums.ReportUnitStatusPartial
		default:
			row.Status = enums.ReportUnitStatusUnpaid
		}
		if row.Remarks == "" {
			row.Remarks = row.Status.Label()
		}

		arrears := rent.Sub(row.RentPaid)
		if arrears.IsNegative() {
			arrears = decimal.Zero
		}
		row.RentArrears = arrears

		summary.ExpectedRent = summary.ExpectedRent.Add(rent)
		summary.CollectedRent = summary.CollectedRent.Add(row.RentPaid)
		summary.TotalArrears = summary.TotalArrears.Add(arrears)
		report.Rows = append(report.Rows, row)
	}

	if summary.TotalUnits > 0 {
		summary.VacancyRate = float64(summary.VacantUnits) / float64(summary.TotalUnits) * 100
	}
	if summary.ExpectedRent.IsPositive() {
		rate, _ := summary.CollectedRent.
			Div(summary.ExpectedRent).
			Mul(decimal.NewFromInt(100)).
			Float64()
		summary.CollectionRate = rate
	}
	return report, nil
}
