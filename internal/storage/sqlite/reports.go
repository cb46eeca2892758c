package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/storage"
)

// BillTotals aggregates every bill. Sums are computed in Go to keep decimal precision.
func (s *SQLiteStore) BillTotals(ctx context.Context, since time.Time) (storage.BillTotals, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT period_start, total_amount, amount_paid FROM bills ORDER BY period_start")
	if err != nil {
		return storage.BillTotals{}, fmt.Errorf("failed to query bill totals: %w", err)
	}
	defer rows.Close()

	totals := storage.BillTotals{Revenue: decimal.Zero, Unpaid: decimal.Zero}
	sinceDay := formatDate(since)
	for rows.Next() {
		var (
			start       string
			total, paid decimal.Decimal
		)
		if err := rows.Scan(&start, &total, &paid); err != nil {
			return storage.BillTotals{}, fmt.Errorf("failed to scan bill totals: %w", err)
		}

		totals.Count++
		totals.Revenue = totals.Revenue.Add(paid)
		if paid.LessThan(total) {
			totals.Unpaid = totals.Unpaid.Add(total.Sub(paid))
		}

		if start < sinceDay {
			continue
		}
		day, err := parseDate(start)
		if err != nil {
			return storage.BillTotals{}, err
		}
		n := len(totals.Monthly)
		if n > 0 && totals.Monthly[n-1].Year == day.Year() && totals.Monthly[n-1].Month == int(day.Month()) {
			totals.Monthly[n-1].Revenue = totals.Monthly[n-1].Revenue.Add(paid)
			continue
		}
		totals.Monthly = append(totals.Monthly, storage.MonthlyRevenue{
			Year:    day.Year(),
			Month:   int(day.Month()),
			Revenue: paid,
		})
	}
	if err := rows.Err(); err != nil {
		return storage.BillTotals{}, fmt.Errorf("failed to iterate bill totals: %w", err)
	}
	return totals, nil
}

// CountOpenIssues returns the number of unresolved bill issues.
func (s *SQLiteStore) CountOpenIssues(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bill_issues WHERE is_resolved = 0").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count open issues: %w", err)
	}
	return n, nil
}
