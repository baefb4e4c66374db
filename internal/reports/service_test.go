package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/period"
)

type stubReportsRepo struct {
	units    []UnitRow
	payments []models.RentPayment
	bills    []models.Bill
}

func (s *stubReportsRepo) ListUnits(ctx context.Context, propertyID *uuid.UUID) ([]UnitRow, error) {
	return s.units, nil
}

func (s *stubReportsRepo) ListPayments(ctx context.Context, propertyID *uuid.UUID, start, end time.Time) ([]models.RentPayment, error) {
	return s.payments, nil
}

func (s *stubReportsRepo) ListWaterBills(ctx context.Context, propertyID *uuid.UUID, start, end time.Time) ([]models.Bill, error) {
	return s.bills, nil
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func unitRow(status enums.UnitStatus, price string) UnitRow {
	p := dec(price)
	return UnitRow{
		Unit: models.Unit{
			ID:         uuid.New(),
			PropertyID: uuid.New(),
			UnitNumber: "A-1",
			Status:     status,
			Price:      &p,
		},
		PropertyName: "Makini Court",
	}
}

func march() period.Month {
	return period.Month{Year: 2026, Month: time.March}
}

func TestGenerateVacantUnitHasNoArrears(t *testing.T) {
	unit := unitRow(enums.UnitStatusVacant, "12000")
	repo := &stubReportsRepo{
		units: []UnitRow{unit},
		// A stale payment row exists for the vacant unit; it must not
		// produce arrears.
		payments: []models.RentPayment{{
			UnitID:     unit.ID,
			Amount:     dec("12000"),
			AmountPaid: dec("0"),
			DueDate:    march().Start(),
		}},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	report, err := svc.Generate(context.Background(), nil, march())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	row := report.Rows[0]
	if row.Status != enums.ReportUnitStatusVacant {
		t.Errorf("status = %s, want vacant", row.Status)
	}
	if !row.RentArrears.IsZero() {
		t.Errorf("arrears = %s, want 0", row.RentArrears)
	}
	if !report.Summary.TotalArrears.IsZero() {
		t.Errorf("summary arrears = %s, want 0", report.Summary.TotalArrears)
	}
}

func TestGenerateStatusBuckets(t *testing.T) {
	paid := unitRow(enums.UnitStatusOccupied, "10000")
	partial := unitRow(enums.UnitStatusOccupied, "10000")
	unpaid := unitRow(enums.UnitStatusOccupied, "10000")
	repo := &stubReportsRepo{
		units: []UnitRow{paid, partial, unpaid},
		payments: []models.RentPayment{
			{UnitID: paid.ID, Amount: dec("10000"), AmountPaid: dec("10000")},
			{UnitID: partial.ID, Amount: dec("10000"), AmountPaid: dec("2500")},
		},
	}
	svc, _ := NewService(repo)

	report, err := svc.Generate(context.Background(), nil, march())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []enums.ReportUnitStatus{
		enums.ReportUnitStatusPaid,
		enums.ReportUnitStatusPartial,
		enums.ReportUnitStatusUnpaid,
	}
	for i, row := range report.Rows {
		if row.Status != want[i] {
			t.Errorf("row %d status = %s, want %s", i, row.Status, want[i])
		}
	}

	s := report.Summary
	if !s.ExpectedRent.Equal(dec("30000")) {
		t.Errorf("expected rent = %s", s.ExpectedRent)
	}
	if !s.CollectedRent.Equal(dec("12500")) {
		t.Errorf("collected rent = %s", s.CollectedRent)
	}
	if !s.TotalArrears.Equal(dec("17500")) {
		t.Errorf("arrears = %s", s.TotalArrears)
	}
	if s.CollectionRate < 41.6 || s.CollectionRate > 41.7 {
		t.Errorf("collection rate = %f", s.CollectionRate)
	}
}

func TestGenerateZeroUnitsGuardsRates(t *testing.T) {
	svc, _ := NewService(&stubReportsRepo{})

	report, err := svc.Generate(context.Background(), nil, march())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Summary.VacancyRate != 0 || report.Summary.CollectionRate != 0 {
		t.Errorf("rates must degrade to 0, got %+v", report.Summary)
	}
	if len(report.Rows) != 0 {
		t.Errorf("rows = %d", len(report.Rows))
	}
}

func TestGenerateAllVacantGuardsCollectionRate(t *testing.T) {
	repo := &stubReportsRepo{
		units: []UnitRow{
			unitRow(enums.UnitStatusVacant, "10000"),
			unitRow(enums.UnitStatusAvailable, "10000"),
		},
	}
	svc, _ := NewService(repo)

	report, err := svc.Generate(context.Background(), nil, march())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s := report.Summary
	if s.VacancyRate != 100 {
		t.Errorf("vacancy rate = %f, want 100", s.VacancyRate)
	}
	if s.CollectionRate != 0 {
		t.Errorf("collection rate = %f, want 0 with no expected rent", s.CollectionRate)
	}
	// Legacy 'available' rows land in the vacant bucket.
	if s.VacantUnits != 2 {
		t.Errorf("vacant units = %d, want 2", s.VacantUnits)
	}
}

func TestGenerateOverpaymentClampsArrears(t *testing.T) {
	unit := unitRow(enums.UnitStatusOccupied, "10000")
	repo := &stubReportsRepo{
		units: []UnitRow{unit},
		payments: []models.RentPayment{
			{UnitID: unit.ID, Amount: dec("10000"), AmountPaid: dec("15000")},
		},
	}
	svc, _ := NewService(repo)

	report, err := svc.Generate(context.Background(), nil, march())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !report.Rows[0].RentArrears.IsZero() {
		t.Errorf("arrears = %s, want 0 on overpayment", report.Rows[0].RentArrears)
	}
	if report.Rows[0].Status != enums.ReportUnitStatusPaid {
		t.Errorf("status = %s, want paid", report.Rows[0].Status)
	}
}

func TestGenerateAttachesWaterBills(t *testing.T) {
	unit := unitRow(enums.UnitStatusOccupied, "10000")
	repo := &stubReportsRepo{
		units: []UnitRow{unit},
		bills: []models.Bill{{
			UnitID:     unit.ID,
			BillType:   enums.BillTypeWater,
			Amount:     dec("800"),
			PaidAmount: dec("300"),
		}},
	}
	svc, _ := NewService(repo)

	report, err := svc.Generate(context.Background(), nil, march())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	row := report.Rows[0]
	if !row.WaterBill.Equal(dec("800")) || !row.WaterPaid.Equal(dec("300")) {
		t.Errorf("water = %s/%s", row.WaterPaid, row.WaterBill)
	}
}
