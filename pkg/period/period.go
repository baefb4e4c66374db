package period

import (
	"fmt"
	"time"
)

// Month is a calendar month in UTC, the unit every payment and report
// window is keyed on.
type Month struct {
	Year  int
	Month time.Month
}

// Parse accepts the wire form "2006-01".
func Parse(value string) (Month, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", value)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// FromTime buckets an instant into its UTC month.
func FromTime(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// Current returns the month containing now.
func Current() Month {
	return FromTime(time.Now())
}

// Start is the first instant of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next is the first instant of the following month. Queries use the
// half-open window [Start, Next).
func (m Month) Next() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Contains reports whether the instant falls inside the month window.
func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(m.Start()) && u.Before(m.Next())
}

func (m Month) String() string {
	return m.Start().Format("2006-01")
}
