package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

const billColumns = `b.id, b.member_id, b.period_start, b.period_end, b.total_meals, b.meal_rate,
	b.utility_charge, b.meal_total, b.previous_dues, b.total_amount, b.amount_paid, b.paid_at, b.created_at`

const defaultPageSize = 10

// FindBill returns the bill for exactly this member and period, or nil.
func (s *SQLiteStore) FindBill(ctx context.Context, memberID string, periodStart, periodEnd time.Time) (*models.Bill, error) {
	bill, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+` FROM bills b
		 WHERE b.member_id = ? AND b.period_start = ? AND b.period_end = ?`,
		memberID, formatDate(periodStart), formatDate(periodEnd),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	return bill, nil
}

// FindUnpaidBillsBefore returns the member's not fully paid bills that ended before periodStart.
// Amounts are TEXT, so the paid check is done with decimals rather than in SQL.
func (s *SQLiteStore) FindUnpaidBillsBefore(ctx context.Context, memberID string, periodStart time.Time) ([]models.Bill, error) {
	all, err := s.queryBills(ctx,
		"SELECT "+billColumns+` FROM bills b
		 WHERE b.member_id = ? AND b.period_end < ?
		 ORDER BY b.period_start`,
		memberID, formatDate(periodStart),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpaid bills: %w", err)
	}

	var bills []models.Bill
	for _, bill := range all {
		if !bill.IsPaid() {
			bills = append(bills, bill)
		}
	}
	return bills, nil
}

// InsertBills persists all bills in one transaction.
// IDs and CreatedAt are generated when unset.
func (s *SQLiteStore) InsertBills(ctx context.Context, bills []models.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for i := range bills {
		bill := &bills[i]
		if bill.ID == "" {
			bill.ID = uuid.New().String()
		}
		if bill.CreatedAt == 0 {
			bill.CreatedAt = now
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO bills (id, member_id, period_start, period_end, total_meals, meal_rate,
			     utility_charge, meal_total, previous_dues, total_amount, amount_paid, paid_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bill.ID, bill.MemberID, formatDate(bill.PeriodStart), formatDate(bill.PeriodEnd),
			bill.TotalMeals, bill.MealRate.String(), bill.UtilityCharge.String(), bill.MealTotal.String(),
			bill.PreviousDues.String(), bill.TotalAmount.String(), bill.AmountPaid.String(),
			nullIfZero(bill.PaidAt), bill.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: member %s, %s", storage.ErrDuplicateBill, bill.MemberID, bill.Period())
		}
		if err != nil {
			return fmt.Errorf("failed to insert bill: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBill retrieves a bill by ID, or storage.ErrNotFound.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills b WHERE b.id = ?", billID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bill %s", storage.ErrNotFound, billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// ApplyPayment adds amount to the bill's paid total. The balance is re-read and
// checked inside the same transaction as the update.
func (s *SQLiteStore) ApplyPayment(ctx context.Context, billID string, amount decimal.Decimal, paidAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total, paid decimal.Decimal
	err = tx.QueryRowContext(ctx,
		"SELECT total_amount, amount_paid FROM bills WHERE id = ?", billID,
	).Scan(&total, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: bill %s", storage.ErrNotFound, billID)
	}
	if err != nil {
		return fmt.Errorf("failed to read bill balance: %w", err)
	}

	balance := total.Sub(paid)
	if !balance.IsPositive() {
		return fmt.Errorf("%w: %s", storage.ErrAlreadyPaid, billID)
	}
	if amount.GreaterThan(balance) {
		return fmt.Errorf("%w: paying %s against %s", storage.ErrOverpayment, amount.StringFixed(2), balance.StringFixed(2))
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE bills SET amount_paid = ?, paid_at = ? WHERE id = ?",
		paid.Add(amount).String(), paidAt, billID,
	); err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListBills returns one page of bills, newest period first, and the total match count.
// The paid/pending filter compares decimals in Go, so it pages in Go as well.
func (s *SQLiteStore) ListBills(ctx context.Context, filter storage.BillFilter) ([]models.Bill, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.MemberID != "" {
		where = append(where, "b.member_id = ?")
		args = append(args, filter.MemberID)
	}
	if filter.Month != nil {
		where = append(where, "b.period_start >= ? AND b.period_end <= ?")
		args = append(args, formatDate(filter.Month.Start), formatDate(filter.Month.End))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, "(m.full_name LIKE ? OR m.email LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	from := " FROM bills b JOIN members m ON m.id = b.member_id"
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}
	query := "SELECT " + billColumns + from + " ORDER BY b.period_start DESC, m.full_name, b.id"

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	offset := (page - 1) * size

	if filter.Status != models.BillStatusAny {
		all, err := s.queryBills(ctx, query, args...)
		if err != nil {
			return nil, 0, err
		}
		wantPaid := filter.Status == models.BillStatusPaid
		var matched []models.Bill
		for _, b := range all {
			if b.IsPaid() == wantPaid {
				matched = append(matched, b)
			}
		}
		if offset >= len(matched) {
			return nil, len(matched), nil
		}
		return matched[offset:min(offset+size, len(matched))], len(matched), nil
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}
	pageArgs := append(append([]any{}, args...), size, offset)
	bills, err := s.queryBills(ctx, query+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

func (s *SQLiteStore) queryBills(ctx context.Context, query string, args ...any) ([]models.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

func scanBill(row rowScanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var (
		start, end string
		paidAt     sql.NullInt64
	)
	if err := row.Scan(
		&bill.ID,
		&bill.MemberID,
		&start,
		&end,
		&bill.TotalMeals,
		&bill.MealRate,
		&bill.UtilityCharge,
		&bill.MealTotal,
		&bill.PreviousDues,
		&bill.TotalAmount,
		&bill.AmountPaid,
		&paidAt,
		&bill.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if bill.PeriodStart, err = parseDate(start); err != nil {
		return nil, err
	}
	if bill.PeriodEnd, err = parseDate(end); err != nil {
		return nil, err
	}
	bill.PaidAt = paidAt.Int64
	return bill, nil
}
