package types

import (
	"time"
)

// NextBillingDate returns the end of the period that starts at start and lasts
// one billing cycle. Months are calendar months, so a period starting on
// January 31st ends on the last day of February rather than drifting into March.
func NextBillingDate(start time.Time, cycle BillingCycle) (time.Time, error) {
	if err := cycle.Validate(); err != nil {
		return start, err
	}
	return AddClampedDate(start, 0, cycle.Months(), 0), nil
}

// AddClampedDate adds years, months and days to t, clamping the day of month
// to the last valid day of the target month. Time of day and location are kept.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// day 0 of the following month is the last day of newM
	lastDay := time.Date(newY, newM+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}

	return time.Date(newY, newM, d+days, h, min, sec, t.Nanosecond(), t.Location())
}
