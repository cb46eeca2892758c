package models

// BillIssue is a member's report of a problem with one of their bills.
type BillIssue struct {
	// ID is the unique identifier for the issue (UUID format).
	ID string

	// MemberID is the reporting member; always the bill's owner.
	MemberID string

	// BillID is the disputed bill.
	BillID string

	// Description is the member's explanation (max 500 characters).
	Description string

	IsResolved      bool
	ResolutionNotes string

	// CreatedAt is the Unix timestamp when the issue was reported.
	CreatedAt int64

	// ResolvedAt is the Unix timestamp of resolution, 0 while open.
	ResolvedAt int64
}
