// Package billing generates monthly mess bills and records payments against them.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/messbill/internal/calculator"
	"github.com/mmynk/messbill/internal/metrics"
	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/rates"
	"github.com/mmynk/messbill/internal/storage"
)

// Store is the persistence the billing service needs.
type Store interface {
	storage.MemberDirectory
	storage.AttendanceStore
	storage.BillStore
	storage.ReportStore
	GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error)
}

// RateSource supplies the rates for one run.
type RateSource interface {
	Resolve(ctx context.Context) rates.Rates
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// Role selects billable members. Defaults to models.BillableRole.
	Role string

	// Workers bounds concurrent per-member computation. Defaults to 1.
	Workers int

	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Service implements bill generation, payments and bill queries.
type Service struct {
	store   Store
	rates   RateSource
	role    string
	workers int
	now     func() time.Time
	metrics *metrics.Metrics
}

// NewService creates a billing service.
func NewService(store Store, rateSource RateSource, opts Options) *Service {
	role := opts.Role
	if role == "" {
		role = models.BillableRole
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		store:   store,
		rates:   rateSource,
		role:    role,
		workers: workers,
		now:     nowFn,
		metrics: opts.Metrics,
	}
}

// Role returns the role whose members are billed.
func (s *Service) Role() string {
	return s.role
}

// Summary describes the outcome of one generation run.
type Summary struct {
	Period models.Period

	// Bills are the newly created bills, in member order.
	Bills []models.Bill

	// Skipped lists members that already had a bill for the period.
	Skipped []string
}

// GenerateBillsForMonth creates one bill for every billable member that has none
// for the month. Running it again for the same month creates nothing new.
// All new bills are written in a single transaction; on any error none are.
func (s *Service) GenerateBillsForMonth(ctx context.Context, year, month int) (Summary, error) {
	started := time.Now()

	period, err := models.MonthPeriod(year, month)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Period: period}

	// Rates are fixed for the whole run.
	runRates := s.rates.Resolve(ctx)

	memberIDs, err := s.store.ListMemberIDsInRole(ctx, s.role)
	if errors.Is(err, storage.ErrRoleNotFound) {
		s.metrics.ConfigurationFailure()
		slog.Error("Billable role missing, no bills generated", "role", s.role, "period", period.String())
		return Summary{}, &ConfigurationError{Role: s.role, Err: err}
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list billable members: %w", err)
	}
	if len(memberIDs) == 0 {
		slog.Info("No billable members, nothing to generate", "role", s.role, "period", period.String())
		return summary, nil
	}

	prepared := make([]*models.Bill, len(memberIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, memberID := range memberIDs {
		g.Go(func() error {
			bill, err := s.prepareBill(gctx, memberID, period, runRates)
			if err != nil {
				return err
			}
			prepared[i] = bill
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	for i, bill := range prepared {
		if bill == nil {
			summary.Skipped = append(summary.Skipped, memberIDs[i])
			continue
		}
		summary.Bills = append(summary.Bills, *bill)
	}

	if err := s.store.InsertBills(ctx, summary.Bills); err != nil {
		return Summary{}, fmt.Errorf("failed to save bills for %s: %w", period, err)
	}

	elapsed := time.Since(started)
	s.metrics.ObserveGeneration(len(summary.Bills), len(summary.Skipped), elapsed)
	slog.Info("Bills generated",
		"period", period.String(),
		"generated", len(summary.Bills),
		"skipped", len(summary.Skipped),
		"duration_ms", elapsed.Milliseconds(),
	)
	return summary, nil
}

// prepareBill computes the bill for one member, or returns nil if the member
// already has a bill for the period.
func (s *Service) prepareBill(ctx context.Context, memberID string, period models.Period, r rates.Rates) (*models.Bill, error) {
	existing, err := s.store.FindBill(ctx, memberID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bill for %s: %w", memberID, err)
	}
	if existing != nil {
		slog.Debug("Bill already exists, skipping", "member_id", memberID, "period", period.String(), "bill_id", existing.ID)
		return nil, nil
	}

	records, err := s.store.QueryAttendance(ctx, memberID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance for %s: %w", memberID, err)
	}

	unpaid, err := s.store.FindUnpaidBillsBefore(ctx, memberID, period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to load unpaid bills for %s: %w", memberID, err)
	}

	breakdown := calculator.Compute(
		calculator.CountMeals(records, period),
		r.MealRate,
		r.UtilityCharge,
		calculator.OutstandingDues(unpaid, period.Start),
	)
	bill := calculator.NewBill(memberID, period, breakdown)
	return &bill, nil
}
