// Package usage describes describer token consumption reports.
package usage

import "time"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Empty means day.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, true
	case PeriodMonth:
		return PeriodMonth, true
	default:
		return "", false
	}
}

// Window returns the UTC bounds [start, end) of the period containing at.
// Unknown periods are treated as a day.
func (p Period) Window(at time.Time) (start, end time.Time) {
	at = at.UTC()
	if p == PeriodMonth {
		start = time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Budget is the token budget state for one period. Limit 0 means unlimited,
// in which case Remaining is -1.
type Budget struct {
	Limit     int64
	Used      int64
	Remaining int64
}

// Exhausted reports whether a limited budget has no tokens left.
func (b Budget) Exhausted() bool {
	return b.Limit > 0 && b.Remaining <= 0
}

// Report is a describer usage report for a period.
type Report struct {
	Period      Period
	Provider    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Budget      Budget
}
