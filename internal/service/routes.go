package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Procedure paths. Every RPC is unary and served over the Connect protocol.
const (
	AuthLoginProcedure    = "/messbill.v1.AuthService/Login"
	AuthRegisterProcedure = "/messbill.v1.AuthService/Register"

	BillingGenerateBillsProcedure = "/messbill.v1.BillingService/GenerateBills"
	BillingListBillsProcedure     = "/messbill.v1.BillingService/ListBills"
	BillingGetBillProcedure       = "/messbill.v1.BillingService/GetBill"
	BillingMyBillsProcedure       = "/messbill.v1.BillingService/MyBills"
	BillingMarkBillPaidProcedure  = "/messbill.v1.BillingService/MarkBillPaid"
	BillingPayBillProcedure       = "/messbill.v1.BillingService/PayBill"
	BillingDashboardProcedure     = "/messbill.v1.BillingService/Dashboard"

	AttendanceGetTodayProcedure   = "/messbill.v1.AttendanceService/GetToday"
	AttendanceMarkProcedure       = "/messbill.v1.AttendanceService/Mark"
	AttendanceGetRosterProcedure  = "/messbill.v1.AttendanceService/GetRoster"
	AttendanceSaveRosterProcedure = "/messbill.v1.AttendanceService/SaveRoster"

	IssueReportIssueProcedure  = "/messbill.v1.IssueService/ReportIssue"
	IssueListIssuesProcedure   = "/messbill.v1.IssueService/ListIssues"
	IssueResolveIssueProcedure = "/messbill.v1.IssueService/ResolveIssue"

	SettingsGetRatesProcedure  = "/messbill.v1.SettingsService/GetRates"
	SettingsSaveRatesProcedure = "/messbill.v1.SettingsService/SaveRates"
)

// Services groups the RPC implementations mounted by Mount.
type Services struct {
	Auth       *AuthService
	Billing    *BillingService
	Attendance *AttendanceService
	Issues     *IssueService
	Settings   *SettingsService
}

// ClientOptions returns the options a Connect client needs to talk to Mount's handlers.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(jsonCodec{})}
}

func unary[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// Mount registers every procedure on mux. Login gets the public options;
// everything else gets the authenticated ones.
func Mount(mux *http.ServeMux, s Services, public, authed []connect.HandlerOption) {
	unary(mux, AuthLoginProcedure, s.Auth.Login, public)
	unary(mux, AuthRegisterProcedure, s.Auth.Register, authed)

	unary(mux, BillingGenerateBillsProcedure, s.Billing.GenerateBills, authed)
	unary(mux, BillingListBillsProcedure, s.Billing.ListBills, authed)
	unary(mux, BillingGetBillProcedure, s.Billing.GetBill, authed)
	unary(mux, BillingMyBillsProcedure, s.Billing.MyBills, authed)
	unary(mux, BillingMarkBillPaidProcedure, s.Billing.MarkBillPaid, authed)
	unary(mux, BillingPayBillProcedure, s.Billing.PayBill, authed)
	unary(mux, BillingDashboardProcedure, s.Billing.Dashboard, authed)

	unary(mux, AttendanceGetTodayProcedure, s.Attendance.GetToday, authed)
	unary(mux, AttendanceMarkProcedure, s.Attendance.Mark, authed)
	unary(mux, AttendanceGetRosterProcedure, s.Attendance.GetRoster, authed)
	unary(mux, AttendanceSaveRosterProcedure, s.Attendance.SaveRoster, authed)

	unary(mux, IssueReportIssueProcedure, s.Issues.ReportIssue, authed)
	unary(mux, IssueListIssuesProcedure, s.Issues.ListIssues, authed)
	unary(mux, IssueResolveIssueProcedure, s.Issues.ResolveIssue, authed)

	unary(mux, SettingsGetRatesProcedure, s.Settings.GetRates, authed)
	unary(mux, SettingsSaveRatesProcedure, s.Settings.SaveRates, authed)
}
