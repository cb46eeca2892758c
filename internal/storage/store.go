// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRoleNotFound is returned when the requested role does not exist at all,
	// as opposed to existing with no members.
	ErrRoleNotFound = errors.New("role not found")

	// ErrDuplicateBill is returned when a bill for the same member and period already exists.
	ErrDuplicateBill = errors.New("bill already exists for period")

	// ErrEmailExists is returned when creating a member with a taken email.
	ErrEmailExists = errors.New("email already registered")

	// ErrAlreadyPaid is returned when paying a bill with no outstanding balance.
	ErrAlreadyPaid = errors.New("bill is already paid")

	// ErrOverpayment is returned when a payment exceeds the outstanding balance.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")
)

// MemberDirectory resolves role membership.
type MemberDirectory interface {
	// ListMemberIDsInRole returns the IDs of all members holding the role, in a stable order.
	// Returns ErrRoleNotFound if the role itself does not exist.
	ListMemberIDsInRole(ctx context.Context, role string) ([]string, error)
}

// AttendanceStore reads and writes daily attendance.
type AttendanceStore interface {
	// QueryAttendance returns the member's records with from <= date <= to.
	QueryAttendance(ctx context.Context, memberID string, from, to time.Time) ([]models.AttendanceRecord, error)

	// GetAttendance returns the record for one day, or ErrNotFound.
	GetAttendance(ctx context.Context, memberID string, date time.Time) (*models.AttendanceRecord, error)

	// UpsertAttendance inserts or replaces the record for (MemberID, Date).
	UpsertAttendance(ctx context.Context, records ...models.AttendanceRecord) error
}

// BillStore persists bills.
type BillStore interface {
	// FindBill returns the bill for the exact period, or nil if none exists.
	FindBill(ctx context.Context, memberID string, periodStart, periodEnd time.Time) (*models.Bill, error)

	// FindUnpaidBillsBefore returns the member's bills ending before periodStart
	// whose amount paid is below the total.
	FindUnpaidBillsBefore(ctx context.Context, memberID string, periodStart time.Time) ([]models.Bill, error)

	// InsertBills persists all bills atomically. A bill colliding with an existing
	// (member, period) fails the whole batch with ErrDuplicateBill.
	InsertBills(ctx context.Context, bills []models.Bill) error

	// GetBill retrieves a bill by ID, or ErrNotFound.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ApplyPayment adds amount to the bill's AmountPaid and sets PaidAt. The balance
	// is checked in the same transaction as the write: ErrAlreadyPaid, ErrOverpayment.
	ApplyPayment(ctx context.Context, billID string, amount decimal.Decimal, paidAt int64) error

	// ListBills returns one page of bills matching the filter and the total match count.
	ListBills(ctx context.Context, filter BillFilter) ([]models.Bill, int, error)
}

// BillFilter selects bills for ListBills.
type BillFilter struct {
	MemberID string
	Status   models.BillStatus
	// Month limits results to bills whose period lies within it.
	Month *models.Period
	// Search matches member name or email (substring).
	Search string
	// Page is 1-based.
	Page     int
	PageSize int
}

// SettingStore persists rate overrides.
type SettingStore interface {
	// GetSetting returns the stored value and whether it exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// PutSetting inserts or replaces a value.
	PutSetting(ctx context.Context, key, value string) error
}

// MemberStore persists member accounts.
type MemberStore interface {
	CreateMember(ctx context.Context, member *models.Member) error
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)
	GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error)
}

// IssueStore persists bill issues.
type IssueStore interface {
	CreateIssue(ctx context.Context, issue *models.BillIssue) error
	GetIssue(ctx context.Context, issueID string) (*models.BillIssue, error)
	ResolveIssue(ctx context.Context, issueID, notes string, resolvedAt int64) error
	ListIssues(ctx context.Context, openOnly bool) ([]models.BillIssue, error)
}

// MonthlyRevenue is the amount collected on bills starting in one month.
type MonthlyRevenue struct {
	Year    int
	Month   int
	Revenue decimal.Decimal
}

// BillTotals are store-wide bill aggregates.
type BillTotals struct {
	Count   int
	Revenue decimal.Decimal
	Unpaid  decimal.Decimal
	Monthly []MonthlyRevenue
}

// ReportStore answers dashboard aggregate queries.
type ReportStore interface {
	// BillTotals aggregates all bills; Monthly covers bills starting on or after since.
	BillTotals(ctx context.Context, since time.Time) (BillTotals, error)
	CountOpenIssues(ctx context.Context) (int, error)
}

// Store is the full storage backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	MemberDirectory
	MemberStore
	AttendanceStore
	BillStore
	SettingStore
	IssueStore
	ReportStore

	// Close releases any resources held by the store.
	Close() error
}
