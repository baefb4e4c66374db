package reports

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

// Row is one unit's line in a monthly report.
type Row struct {
	UnitID       uuid.UUID              `json:"unit_id"`
	UnitNumber   string                 `json:"unit_number"`
	PropertyID   uuid.UUID              `json:"property_id"`
	PropertyName string                 `json:"property_name"`
	UnitTypeName *string                `json:"unit_type_name,omitempty"`
	Status       enums.ReportUnitStatus `json:"status"`
	MonthlyRent  decimal.Decimal        `json:"monthly_rent"`
	RentPaid     decimal.Decimal        `json:"rent_paid"`
	RentArrears  decimal.Decimal        `json:"rent_arrears"`
	WaterBill    decimal.Decimal        `json:"water_bill"`
	WaterPaid    decimal.Decimal        `json:"water_paid"`
	Remarks      string                 `json:"remarks"`
}

// Summary aggregates a report's rows. The rates are percentages and both
// degrade to 0 instead of dividing by zero.
type Summary struct {
	TotalUnits     int             `json:"total_units"`
	OccupiedUnits  int             `json:"occupied_units"`
	VacantUnits    int             `json:"vacant_units"`
	ExpectedRent   decimal.Decimal `json:"expected_rent"`
	CollectedRent  decimal.Decimal `json:"collected_rent"`
	TotalArrears   decimal.Decimal `json:"total_arrears"`
	VacancyRate    float64         `json:"vacancy_rate"`
	CollectionRate float64         `json:"collection_rate"`
}

// Report is the assembled monthly view.
type Report struct {
	Month   string  `json:"month"`
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}
