package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func TestGetBillingPeriod(t *testing.T) {
	cases := []struct {
		name     string
		cycleDay int
		ref      time.Time
		from     string
		to       string
	}{
		{"cycle day 1 behaves like calendar month", 1, date(2024, time.March, 15), "2024-03-01", "2024-03-31"},
		{"on the cycle day the period starts today", 25, date(2024, time.March, 25), "2024-03-25", "2024-04-24"},
		{"before the cycle day the period started last month", 25, date(2024, time.March, 10), "2024-02-25", "2024-03-24"},
		{"january reference rolls back into december", 25, date(2024, time.January, 10), "2023-12-25", "2024-01-24"},
		{"december reference rolls forward into january", 25, date(2024, time.December, 28), "2024-12-25", "2025-01-24"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			period := GetBillingPeriod(tc.cycleDay, tc.ref)
			if got := period.From.Format("2006-01-02"); got != tc.from {
				t.Fatalf("From expected %s, got %s", tc.from, got)
			}
			if got := period.To.Format("2006-01-02"); got != tc.to {
				t.Fatalf("To expected %s, got %s", tc.to, got)
			}
		})
	}
}

func TestGetBillingPeriod_ToIsEndOfDay(t *testing.T) {
	period := GetBillingPeriod(25, date(2024, time.March, 25))
	if period.To.Hour() != 23 || period.To.Minute() != 59 || period.To.Second() != 59 {
		t.Fatalf("expected end-of-day To, got %s", period.To)
	}
}

func TestGetPreviousBillingPeriod(t *testing.T) {
	prev := GetPreviousBillingPeriod(25, date(2024, time.March, 25))
	if got := prev.From.Format("2006-01-02"); got != "2024-02-25" {
		t.Fatalf("From expected 2024-02-25, got %s", got)
	}
	if got := prev.To.Format("2006-01-02"); got != "2024-03-24" {
		t.Fatalf("To expected 2024-03-24, got %s", got)
	}
	// Previous period must butt up against the current one with no gap.
	current := GetBillingPeriod(25, date(2024, time.March, 25))
	if !prev.To.Add(time.Second).Equal(current.From) {
		t.Fatalf("expected contiguous periods, prev.To=%s current.From=%s", prev.To, current.From)
	}
}

func TestBillingPeriodLabel(t *testing.T) {
	period := GetBillingPeriod(25, date(2025, time.November, 1))
	if got := period.Label(); got != "Oct 25 - Nov 24, 2025" {
		t.Fatalf("unexpected label: %q", got)
	}
}
