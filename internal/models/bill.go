package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is one member's charge for one calendar month.
// There is exactly one bill per (MemberID, PeriodStart, PeriodEnd).
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// MemberID is the billed member.
	MemberID string

	// PeriodStart is the first day of the billed month.
	PeriodStart time.Time

	// PeriodEnd is the last day of the billed month (inclusive).
	PeriodEnd time.Time

	// TotalMeals is the number of meals counted from attendance at generation time.
	TotalMeals int

	// MealRate and UtilityCharge are the rates applied at generation time.
	MealRate      decimal.Decimal
	UtilityCharge decimal.Decimal

	// MealTotal is TotalMeals × MealRate.
	MealTotal decimal.Decimal

	// PreviousDues is the unpaid balance carried forward from earlier bills.
	PreviousDues decimal.Decimal

	// TotalAmount is MealTotal + UtilityCharge + PreviousDues.
	TotalAmount decimal.Decimal

	// AmountPaid only grows, through payments.
	AmountPaid decimal.Decimal

	// PaidAt is the Unix timestamp of the last payment, 0 if none.
	PaidAt int64

	// CreatedAt is the Unix timestamp when the bill was generated.
	CreatedAt int64
}

// IsPaid reports whether the bill is settled. Always derived, never stored.
func (b Bill) IsPaid() bool {
	return b.AmountPaid.GreaterThanOrEqual(b.TotalAmount)
}

// Balance returns the outstanding amount, never negative.
func (b Bill) Balance() decimal.Decimal {
	if b.IsPaid() {
		return decimal.Zero
	}
	return b.TotalAmount.Sub(b.AmountPaid)
}

// Period returns the bill's billing period.
func (b Bill) Period() Period {
	return Period{Start: b.PeriodStart, End: b.PeriodEnd}
}

// BillStatus filters bills by payment state.
type BillStatus string

const (
	BillStatusAny     BillStatus = ""
	BillStatusPaid    BillStatus = "paid"
	BillStatusPending BillStatus = "pending"
)
