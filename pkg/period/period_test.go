package period

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	m, err := Parse("2026-02")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Year != 2026 || m.Month != time.February {
		t.Fatalf("got %+v", m)
	}
	if _, err := Parse("2026-13"); err == nil {
		t.Error("month 13 should be rejected")
	}
	if _, err := Parse("Feb 2026"); err == nil {
		t.Error("free-form dates should be rejected")
	}
}

func TestWindowIsHalfOpen(t *testing.T) {
	m := Month{Year: 2026, Month: time.January}

	if !m.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should include the first instant")
	}
	if !m.Contains(time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("window should include the last second")
	}
	if m.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("window must exclude the next month start")
	}

	if got := m.Next(); !got.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Next = %v", got)
	}
}

func TestNextCrossesYear(t *testing.T) {
	m := Month{Year: 2025, Month: time.December}
	if got := m.Next(); !got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Next = %v", got)
	}
	if m.String() != "2025-12" {
		t.Errorf("String = %s", m.String())
	}
}
