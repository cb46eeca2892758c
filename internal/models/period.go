package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the storage and wire format of calendar days.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format of a billing month.
const MonthLayout = "2006-01"

// ErrInvalidPeriod is returned for a month outside 1..12 or an unparsable month string.
var ErrInvalidPeriod = errors.New("invalid billing period")

// Period is an inclusive range of calendar days covering one month.
type Period struct {
	// Start is the first day of the month at 00:00 UTC.
	Start time.Time

	// End is the last day of the month at 00:00 UTC.
	End time.Time
}

// MonthPeriod returns the period covering the given calendar month.
func MonthPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}, nil
}

// ParseMonth parses a "YYYY-MM" string into its period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return MonthPeriod(t.Year(), int(t.Month()))
}

// Contains reports whether day falls within the period.
func (p Period) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return p.Start.Format(MonthLayout)
}

// Day truncates t to its calendar day, keeping the wall-clock date, in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a "YYYY-MM-DD" string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
