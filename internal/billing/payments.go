package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/models"
)

// RecordPayment applies amount to a bill. The amount must be positive and may
// not exceed the outstanding balance.
func (s *Service) RecordPayment(ctx context.Context, billID string, amount decimal.Decimal) (*models.Bill, error) {
	if !amount.IsPositive() {
		s.metrics.Payment("rejected")
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.IsPaid() {
		s.metrics.Payment("rejected")
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, billID)
	}
	if amount.GreaterThan(bill.Balance()) {
		s.metrics.Payment("rejected")
		return nil, fmt.Errorf("%w: paying %s against %s", ErrOverpayment, amount.StringFixed(2), bill.Balance().StringFixed(2))
	}

	// The store re-checks the balance; a concurrent payment may have landed since the read.
	if err := s.store.ApplyPayment(ctx, billID, amount, s.now().Unix()); err != nil {
		if errors.Is(err, ErrAlreadyPaid) || errors.Is(err, ErrOverpayment) {
			s.metrics.Payment("rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	s.metrics.Payment("applied")
	slog.Info("Payment recorded", "bill_id", billID, "member_id", bill.MemberID, "amount", amount.StringFixed(2))

	return s.store.GetBill(ctx, billID)
}

// MarkPaid settles the bill's outstanding balance in full.
func (s *Service) MarkPaid(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.IsPaid() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, billID)
	}
	return s.RecordPayment(ctx, billID, bill.Balance())
}
