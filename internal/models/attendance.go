package models

import "time"

// AttendanceRecord tracks which meals a member had on one calendar day.
// There is at most one record per (MemberID, Date).
type AttendanceRecord struct {
	// MemberID is the member this record belongs to.
	MemberID string

	// Date is the calendar day (see Day).
	Date time.Time

	HadBreakfast bool
	HadLunch     bool
	HadDinner    bool

	// SkipReason is an optional note for skipped meals.
	SkipReason string

	// MarkedAt is the Unix timestamp of the last edit, 0 if never edited.
	MarkedAt int64
}

// Meals returns how many of the three meals were consumed.
func (a AttendanceRecord) Meals() int {
	n := 0
	for _, had := range []bool{a.HadBreakfast, a.HadLunch, a.HadDinner} {
		if had {
			n++
		}
	}
	return n
}

// DefaultPresent returns an unsaved record with all meals marked.
// It is a display default only and never counts toward a bill.
func DefaultPresent(memberID string, date time.Time) AttendanceRecord {
	return AttendanceRecord{
		MemberID:     memberID,
		Date:         Day(date),
		HadBreakfast: true,
		HadLunch:     true,
		HadDinner:    true,
	}
}
