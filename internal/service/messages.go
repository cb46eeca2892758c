package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/attendance"
	"github.com/mmynk/messbill/internal/billing"
	"github.com/mmynk/messbill/internal/models"
)

// Amounts travel as fixed two-decimal strings to keep them exact.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Bill is the wire form of a bill with its owner.
type Bill struct {
	ID          string `json:"id"`
	MemberID    string `json:"member_id"`
	MemberName  string `json:"member_name,omitempty"`
	MemberEmail string `json:"member_email,omitempty"`
	Department  string `json:"department,omitempty"`

	Month       string `json:"month"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	TotalMeals    int    `json:"total_meals"`
	MealRate      string `json:"meal_rate"`
	MealTotal     string `json:"meal_total"`
	UtilityCharge string `json:"utility_charge"`
	PreviousDues  string `json:"previous_dues"`
	TotalAmount   string `json:"total_amount"`
	AmountPaid    string `json:"amount_paid"`
	Balance       string `json:"balance"`
	IsPaid        bool   `json:"is_paid"`

	PaidAt    int64 `json:"paid_at,omitempty"`
	CreatedAt int64 `json:"created_at"`
}

func toBill(b models.Bill) Bill {
	return Bill{
		ID:            b.ID,
		MemberID:      b.MemberID,
		Month:         b.Period().String(),
		PeriodStart:   b.PeriodStart.Format(models.DateLayout),
		PeriodEnd:     b.PeriodEnd.Format(models.DateLayout),
		TotalMeals:    b.TotalMeals,
		MealRate:      money(b.MealRate),
		MealTotal:     money(b.MealTotal),
		UtilityCharge: money(b.UtilityCharge),
		PreviousDues:  money(b.PreviousDues),
		TotalAmount:   money(b.TotalAmount),
		AmountPaid:    money(b.AmountPaid),
		Balance:       money(b.Balance()),
		IsPaid:        b.IsPaid(),
		PaidAt:        b.PaidAt,
		CreatedAt:     b.CreatedAt,
	}
}

func toBillDetails(d billing.BillDetails) Bill {
	b := toBill(d.Bill)
	b.MemberName = d.MemberName
	b.MemberEmail = d.MemberEmail
	b.Department = d.Department
	return b
}

func toBillList(details []billing.BillDetails) []Bill {
	bills := make([]Bill, len(details))
	for i, d := range details {
		bills[i] = toBillDetails(d)
	}
	return bills
}

// Billing

type GenerateBillsRequest struct {
	// Month is "YYYY-MM".
	Month string `json:"month" validate:"required"`
}

type GenerateBillsResponse struct {
	Month     string   `json:"month"`
	Generated []Bill   `json:"generated"`
	Skipped   []string `json:"skipped"`
}

type ListBillsRequest struct {
	MemberID string `json:"member_id,omitempty"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=paid pending"`
	Month    string `json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
	Search   string `json:"search,omitempty" validate:"max=100"`
	Page     int    `json:"page,omitempty" validate:"gte=0"`
	PageSize int    `json:"page_size,omitempty" validate:"gte=0,lte=100"`
}

type ListBillsResponse struct {
	Bills    []Bill `json:"bills"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type GetBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type BillResponse struct {
	Bill Bill `json:"bill"`
}

type MyBillsRequest struct{}

type MyBillsResponse struct {
	Bills []Bill `json:"bills"`
}

type MarkBillPaidRequest struct {
	BillID string `json:"bill_id" validate:"required"`
	// Amount is optional; empty pays the outstanding balance in full.
	Amount string `json:"amount,omitempty" validate:"omitempty,money"`
}

type PayBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type DashboardRequest struct{}

type MonthlyRevenue struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Revenue string `json:"revenue"`
}

type DashboardResponse struct {
	BillableMembers int              `json:"billable_members"`
	TotalBills      int              `json:"total_bills"`
	Revenue         string           `json:"revenue"`
	Unpaid          string           `json:"unpaid"`
	OpenIssues      int              `json:"open_issues"`
	Monthly         []MonthlyRevenue `json:"monthly"`
}

// Attendance

type Attendance struct {
	MemberID     string `json:"member_id" validate:"required"`
	Date         string `json:"date,omitempty"`
	HadBreakfast bool   `json:"had_breakfast"`
	HadLunch     bool   `json:"had_lunch"`
	HadDinner    bool   `json:"had_dinner"`
	SkipReason   string `json:"skip_reason,omitempty" validate:"max=200"`
	MarkedAt     int64  `json:"marked_at,omitempty"`
}

func toAttendance(r models.AttendanceRecord) Attendance {
	return Attendance{
		MemberID:     r.MemberID,
		Date:         r.Date.Format(models.DateLayout),
		HadBreakfast: r.HadBreakfast,
		HadLunch:     r.HadLunch,
		HadDinner:    r.HadDinner,
		SkipReason:   r.SkipReason,
		MarkedAt:     r.MarkedAt,
	}
}

type GetTodayRequest struct{}

type TodayResponse struct {
	Record Attendance `json:"record"`
	// Saved is false while Record is the default-present placeholder.
	Saved      bool `json:"saved"`
	CanEdit    bool `json:"can_edit"`
	CutoffHour int  `json:"cutoff_hour"`
}

type MarkAttendanceRequest struct {
	// MemberID defaults to the caller.
	MemberID     string `json:"member_id,omitempty"`
	HadBreakfast bool   `json:"had_breakfast"`
	HadLunch     bool   `json:"had_lunch"`
	HadDinner    bool   `json:"had_dinner"`
	SkipReason   string `json:"skip_reason,omitempty" validate:"max=200"`
}

type AttendanceResponse struct {
	Record Attendance `json:"record"`
}

type GetRosterRequest struct {
	// Date is "YYYY-MM-DD", default today.
	Date string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type RosterEntry struct {
	FullName   string     `json:"full_name"`
	Department string     `json:"department,omitempty"`
	Record     Attendance `json:"record"`
	Saved      bool       `json:"saved"`
}

func toRosterEntries(roster []attendance.RosterEntry) []RosterEntry {
	entries := make([]RosterEntry, len(roster))
	for i, e := range roster {
		entries[i] = RosterEntry{
			FullName:   e.Member.FullName,
			Department: e.Member.Department,
			Record:     toAttendance(e.Record),
			Saved:      e.Saved,
		}
	}
	return entries
}

type RosterResponse struct {
	Date    string        `json:"date"`
	Entries []RosterEntry `json:"entries"`
}

type SaveRosterRequest struct {
	Date    string       `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Records []Attendance `json:"records" validate:"required,min=1,dive"`
}

type SaveRosterResponse struct {
	Saved int `json:"saved"`
}

// Issues

type Issue struct {
	ID              string `json:"id"`
	MemberID        string `json:"member_id"`
	BillID          string `json:"bill_id"`
	Description     string `json:"description"`
	IsResolved      bool   `json:"is_resolved"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
	CreatedAt       int64  `json:"created_at"`
	ResolvedAt      int64  `json:"resolved_at,omitempty"`
}

func toIssue(i models.BillIssue) Issue {
	return Issue{
		ID:              i.ID,
		MemberID:        i.MemberID,
		BillID:          i.BillID,
		Description:     i.Description,
		IsResolved:      i.IsResolved,
		ResolutionNotes: i.ResolutionNotes,
		CreatedAt:       i.CreatedAt,
		ResolvedAt:      i.ResolvedAt,
	}
}

type ReportIssueRequest struct {
	BillID      string `json:"bill_id" validate:"required"`
	Description string `json:"description" validate:"required,max=500"`
}

type IssueResponse struct {
	Issue Issue `json:"issue"`
}

type ListIssuesRequest struct {
	OpenOnly bool `json:"open_only,omitempty"`
}

type ListIssuesResponse struct {
	Issues []Issue `json:"issues"`
}

type ResolveIssueRequest struct {
	IssueID string `json:"issue_id" validate:"required"`
	Notes   string `json:"notes,omitempty" validate:"max=1000"`
}

// Settings

type GetRatesRequest struct{}

type SaveRatesRequest struct {
	MealRate      string `json:"meal_rate" validate:"required,money"`
	UtilityCharge string `json:"utility_charge" validate:"required,money"`
}

type RatesResponse struct {
	MealRate      string `json:"meal_rate"`
	UtilityCharge string `json:"utility_charge"`
}

// Auth

type Member struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	Department string   `json:"department,omitempty"`
	Roles      []string `json:"roles"`
	CreatedAt  int64    `json:"created_at"`
}

func toMember(m *models.Member) Member {
	return Member{
		ID:         m.ID,
		Email:      m.Email,
		FullName:   m.FullName,
		Department: m.Department,
		Roles:      m.Roles,
		CreatedAt:  m.CreatedAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Member Member `json:"member"`
	Token  string `json:"token"`
}

type RegisterRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"full_name" validate:"required,max=100"`
	Department string   `json:"department,omitempty" validate:"max=100"`
	Password   string   `json:"password" validate:"required,min=8"`
	Roles      []string `json:"roles" validate:"required,min=1,dive,oneof=Admin MessManager Teacher"`
}

type RegisterResponse struct {
	Member Member `json:"member"`
}
