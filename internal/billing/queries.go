package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

// dashboardMonths is how many months of revenue the dashboard covers, current month included.
const dashboardMonths = 6

// BillDetails is a bill with the owner's display fields.
type BillDetails struct {
	models.Bill

	MemberName  string
	MemberEmail string
	Department  string
}

// BillPage is one page of ListBills results.
type BillPage struct {
	Bills    []BillDetails
	Total    int
	Page     int
	PageSize int
}

// ListBills returns one page of bills matching filter, newest period first.
func (s *Service) ListBills(ctx context.Context, filter storage.BillFilter) (BillPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	bills, total, err := s.store.ListBills(ctx, filter)
	if err != nil {
		return BillPage{}, err
	}
	details, err := s.withMembers(ctx, bills)
	if err != nil {
		return BillPage{}, err
	}
	return BillPage{Bills: details, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// BillDetails returns one bill with its owner, or storage.ErrNotFound.
func (s *Service) BillDetails(ctx context.Context, billID string) (*BillDetails, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	details, err := s.withMembers(ctx, []models.Bill{*bill})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// MemberBills returns every bill of one member, newest period first.
func (s *Service) MemberBills(ctx context.Context, memberID string) ([]BillDetails, error) {
	const pageSize = 100

	var all []models.Bill
	for page := 1; ; page++ {
		bills, total, err := s.store.ListBills(ctx, storage.BillFilter{
			MemberID: memberID,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, bills...)
		if len(bills) < pageSize || len(all) >= total {
			break
		}
	}
	return s.withMembers(ctx, all)
}

func (s *Service) withMembers(ctx context.Context, bills []models.Bill) ([]BillDetails, error) {
	ids := make([]string, 0, len(bills))
	seen := make(map[string]bool, len(bills))
	for _, b := range bills {
		if !seen[b.MemberID] {
			seen[b.MemberID] = true
			ids = append(ids, b.MemberID)
		}
	}

	members, err := s.store.GetMembersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load bill owners: %w", err)
	}

	details := make([]BillDetails, len(bills))
	for i, b := range bills {
		details[i] = BillDetails{Bill: b}
		if m, ok := members[b.MemberID]; ok {
			details[i].MemberName = m.FullName
			details[i].MemberEmail = m.Email
			details[i].Department = m.Department
		}
	}
	return details, nil
}

// Dashboard summarises billing for the admin overview.
type Dashboard struct {
	BillableMembers int
	TotalBills      int

	// Revenue is the sum paid across all bills.
	Revenue decimal.Decimal

	// Unpaid is the sum of outstanding balances.
	Unpaid decimal.Decimal

	OpenIssues int

	// Monthly is revenue grouped by bill period start, oldest first,
	// covering the current month and the five before it.
	Monthly []storage.MonthlyRevenue
}

// Dashboard computes the admin overview as of now.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	ids, err := s.store.ListMemberIDsInRole(ctx, s.role)
	if err != nil && !errors.Is(err, storage.ErrRoleNotFound) {
		return Dashboard{}, fmt.Errorf("failed to count billable members: %w", err)
	}

	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(dashboardMonths - 1), 0)
	totals, err := s.store.BillTotals(ctx, since)
	if err != nil {
		return Dashboard{}, err
	}

	open, err := s.store.CountOpenIssues(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		BillableMembers: len(ids),
		TotalBills:      totals.Count,
		Revenue:         totals.Revenue,
		Unpaid:          totals.Unpaid,
		OpenIssues:      open,
		Monthly:         totals.Monthly,
	}, nil
}
