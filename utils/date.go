package utils

import "time"

// DateOnly truncates a timestamp to its UTC calendar day. Accrual
// bookkeeping is keyed on these normalized dates so the unique
// (investment, day) constraint behaves across time zones.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the following calendar day.
func NextDay(t time.Time) time.Time {
	return DateOnly(t).AddDate(0, 0, 1)
}
