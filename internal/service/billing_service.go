package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/messbill/internal/billing"
	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

// BillingService implements the BillingService RPCs.
type BillingService struct {
	billing *billing.Service
}

// NewBillingService creates the billing RPC handlers.
func NewBillingService(b *billing.Service) *BillingService {
	return &BillingService{billing: b}
}

// GenerateBills creates the month's bills for every billable member. Admin only.
func (s *BillingService) GenerateBills(ctx context.Context, req *connect.Request[GenerateBillsRequest]) (*connect.Response[GenerateBillsResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	period, err := models.ParseMonth(req.Msg.Month)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("GenerateBills request", "month", period.String(), "member_id", middleware.GetMemberID(ctx))
	summary, err := s.billing.GenerateBillsForMonth(ctx, period.Start.Year(), int(period.Start.Month()))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &GenerateBillsResponse{
		Month:     summary.Period.String(),
		Generated: make([]Bill, len(summary.Bills)),
		Skipped:   summary.Skipped,
	}
	for i, b := range summary.Bills {
		resp.Generated[i] = toBill(b)
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	return connect.NewResponse(resp), nil
}

// ListBills pages through bills with optional filters. Admins and mess managers.
func (s *BillingService) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin, models.RoleMessManager); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	filter := storage.BillFilter{
		MemberID: req.Msg.MemberID,
		Status:   models.BillStatus(req.Msg.Status),
		Search:   req.Msg.Search,
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	}
	if req.Msg.Month != "" {
		month, err := models.ParseMonth(req.Msg.Month)
		if err != nil {
			return nil, toConnectError(err)
		}
		filter.Month = &month
	}

	page, err := s.billing.ListBills(ctx, filter)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListBillsResponse{
		Bills:    toBillList(page.Bills),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}), nil
}

// GetBill returns one bill. Members may only read their own.
func (s *BillingService) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[BillResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	details, err := s.billing.BillDetails(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if details.MemberID != middleware.GetMemberID(ctx) {
		if err := middleware.RequireRole(ctx, models.RoleAdmin, models.RoleMessManager); err != nil {
			return nil, err
		}
	}
	return connect.NewResponse(&BillResponse{Bill: toBillDetails(*details)}), nil
}

// MyBills lists the caller's bills, newest first.
func (s *BillingService) MyBills(ctx context.Context, req *connect.Request[MyBillsRequest]) (*connect.Response[MyBillsResponse], error) {
	if err := middleware.RequireRole(ctx, s.billing.Role()); err != nil {
		return nil, err
	}
	details, err := s.billing.MemberBills(ctx, middleware.GetMemberID(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MyBillsResponse{Bills: toBillList(details)}), nil
}

// MarkBillPaid records a payment, by default the full balance. Admin only.
func (s *BillingService) MarkBillPaid(ctx context.Context, req *connect.Request[MarkBillPaidRequest]) (*connect.Response[BillResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	var (
		bill *models.Bill
		err  error
	)
	if req.Msg.Amount == "" {
		bill, err = s.billing.MarkPaid(ctx, req.Msg.BillID)
	} else {
		bill, err = s.billing.RecordPayment(ctx, req.Msg.BillID, decimal.RequireFromString(strings.TrimSpace(req.Msg.Amount)))
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return s.billResponse(ctx, bill.ID)
}

// PayBill settles one of the caller's own bills in full.
func (s *BillingService) PayBill(ctx context.Context, req *connect.Request[PayBillRequest]) (*connect.Response[BillResponse], error) {
	if err := middleware.RequireRole(ctx, s.billing.Role()); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	details, err := s.billing.BillDetails(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err)
	}
	// Other members' bills are reported as missing.
	if details.MemberID != middleware.GetMemberID(ctx) {
		return nil, toConnectError(storage.ErrNotFound)
	}
	if _, err := s.billing.MarkPaid(ctx, details.ID); err != nil {
		return nil, toConnectError(err)
	}
	return s.billResponse(ctx, details.ID)
}

func (s *BillingService) billResponse(ctx context.Context, billID string) (*connect.Response[BillResponse], error) {
	details, err := s.billing.BillDetails(ctx, billID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&BillResponse{Bill: toBillDetails(*details)}), nil
}

// Dashboard returns the admin overview.
func (s *BillingService) Dashboard(ctx context.Context, req *connect.Request[DashboardRequest]) (*connect.Response[DashboardResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	dash, err := s.billing.Dashboard(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &DashboardResponse{
		BillableMembers: dash.BillableMembers,
		TotalBills:      dash.TotalBills,
		Revenue:         money(dash.Revenue),
		Unpaid:          money(dash.Unpaid),
		OpenIssues:      dash.OpenIssues,
		Monthly:         make([]MonthlyRevenue, len(dash.Monthly)),
	}
	for i, m := range dash.Monthly {
		resp.Monthly[i] = MonthlyRevenue{Year: m.Year, Month: m.Month, Revenue: money(m.Revenue)}
	}
	return connect.NewResponse(resp), nil
}
