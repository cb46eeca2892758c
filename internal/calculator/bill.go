package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/models"
)

// Breakdown is the itemised charge for one member over one period.
type Breakdown struct {
	TotalMeals    int
	MealRate      decimal.Decimal
	MealTotal     decimal.Decimal
	UtilityCharge decimal.Decimal
	PreviousDues  decimal.Decimal
	Total         decimal.Decimal
}

// CountMeals sums the meal flags of records that fall inside period.
// Days without a record contribute nothing.
func CountMeals(records []models.AttendanceRecord, period models.Period) int {
	total := 0
	for _, r := range records {
		if !period.Contains(r.Date) {
			continue
		}
		total += r.Meals()
	}
	return total
}

// OutstandingDues sums the unpaid remainder of every bill that ended before start.
// Bills that are fully paid, or that end on or after start, are ignored.
func OutstandingDues(bills []models.Bill, start time.Time) decimal.Decimal {
	dues := decimal.Zero
	for _, b := range bills {
		if !b.PeriodEnd.Before(start) || b.IsPaid() {
			continue
		}
		dues = dues.Add(b.TotalAmount.Sub(b.AmountPaid))
	}
	return dues
}

// Compute builds the breakdown for one member:
// total = meals × mealRate + utilityCharge + previousDues.
func Compute(totalMeals int, mealRate, utilityCharge, previousDues decimal.Decimal) Breakdown {
	mealTotal := mealRate.Mul(decimal.NewFromInt(int64(totalMeals)))
	return Breakdown{
		TotalMeals:    totalMeals,
		MealRate:      mealRate,
		MealTotal:     mealTotal,
		UtilityCharge: utilityCharge,
		PreviousDues:  previousDues,
		Total:         mealTotal.Add(utilityCharge).Add(previousDues),
	}
}

// NewBill turns a breakdown into an unpaid bill for memberID.
func NewBill(memberID string, period models.Period, b Breakdown) models.Bill {
	return models.Bill{
		MemberID:      memberID,
		PeriodStart:   period.Start,
		PeriodEnd:     period.End,
		TotalMeals:    b.TotalMeals,
		MealRate:      b.MealRate,
		UtilityCharge: b.UtilityCharge,
		MealTotal:     b.MealTotal,
		PreviousDues:  b.PreviousDues,
		TotalAmount:   b.Total,
		AmountPaid:    decimal.Zero,
	}
}
