package models

import (
	"fmt"
	"time"
)

// BillingPeriod is a cycle-aware month: it starts on the user's billing
// cycle day rather than the 1st.
type BillingPeriod struct {
	From time.Time
	To   time.Time
}

// GetBillingPeriod returns the period containing referenceDate for a cycle
// starting on cycleDay (1-28). If the reference day is on or after the cycle
// day the period started this month, otherwise it started last month.
func GetBillingPeriod(cycleDay int, referenceDate time.Time) BillingPeriod {
	year, month, day := referenceDate.Date()
	loc := referenceDate.Location()

	if day >= cycleDay {
		return BillingPeriod{
			From: time.Date(year, month, cycleDay, 0, 0, 0, 0, loc),
			To:   time.Date(year, month+1, cycleDay-1, 23, 59, 59, 0, loc),
		}
	}
	return BillingPeriod{
		From: time.Date(year, month-1, cycleDay, 0, 0, 0, 0, loc),
		To:   time.Date(year, month, cycleDay-1, 23, 59, 59, 0, loc),
	}
}

// GetPreviousBillingPeriod returns the period immediately before the one
// containing referenceDate.
func GetPreviousBillingPeriod(cycleDay int, referenceDate time.Time) BillingPeriod {
	current := GetBillingPeriod(cycleDay, referenceDate)
	return BillingPeriod{
		From: current.From.AddDate(0, -1, 0),
		To:   current.From.Add(-time.Second),
	}
}

// Label renders the period like "Oct 25 - Nov 24, 2025".
func (p BillingPeriod) Label() string {
	return fmt.Sprintf("%s - %s", p.From.Format("Jan 2"), p.To.Format("Jan 2, 2006"))
}
