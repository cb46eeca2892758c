package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/attendance"
	"github.com/mmynk/messbill/internal/auth"
	"github.com/mmynk/messbill/internal/billing"
	"github.com/mmynk/messbill/internal/issues"
	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/rates"
	"github.com/mmynk/messbill/internal/storage/sqlite"
)

// 08:00 on 2024-05-10, before the attendance cutoff.
var testNow = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

type testServer struct {
	url     string
	admin   string
	manager string
	teacher string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "messbill-service-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.EnsureRoles(ctx, models.AllRoles...); err != nil {
		t.Fatalf("EnsureRoles failed: %v", err)
	}

	resolver := rates.NewResolver(store)
	if err := resolver.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults failed: %v", err)
	}

	authenticator := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token := func(email, name string, roles ...string) string {
		member, err := authenticator.Register(ctx, auth.Registration{
			Email:      email,
			FullName:   name,
			Credential: "password123",
			Roles:      roles,
		})
		if err != nil {
			t.Fatalf("Register(%s) failed: %v", email, err)
		}
		tok, err := jwtManager.Generate(member)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		return tok
	}

	attendanceSvc := attendance.NewService(store, attendance.Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	services := Services{
		Auth:       NewAuthService(authenticator, jwtManager, slog.Default()),
		Billing:    NewBillingService(billing.NewService(store, resolver, billing.Options{Workers: 2})),
		Attendance: NewAttendanceService(attendanceSvc, attendance.DefaultCutoffHour),
		Issues:     NewIssueService(issues.NewService(store, time.Now), models.BillableRole),
		Settings:   NewSettingsService(resolver),
	}

	mux := http.NewServeMux()
	Mount(mux, services,
		[]connect.HandlerOption{connect.WithInterceptors(middleware.LoggingInterceptor(nil))},
		[]connect.HandlerOption{connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor(nil))},
	)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{
		url:     srv.URL,
		admin:   token("admin@school.edu", "Admin", models.RoleAdmin),
		manager: token("manager@school.edu", "Manager", models.RoleMessManager),
		teacher: token("asha@school.edu", "Asha Rao", models.RoleTeacher),
	}
}

func call[Req, Res any](t *testing.T, s *testServer, procedure, token string, msg *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](http.DefaultClient, s.url+procedure, ClientOptions()...)
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	resp, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func wantCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("expected code %v, got %v (%v)", code, got, err)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	resp, err := call[LoginRequest, LoginResponse](t, s, AuthLoginProcedure, "",
		&LoginRequest{Email: "ASHA@school.edu", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.Member.Email != "asha@school.edu" || resp.Member.FullName != "Asha Rao" {
		t.Errorf("unexpected member: %+v", resp.Member)
	}

	_, err = call[LoginRequest, LoginResponse](t, s, AuthLoginProcedure, "",
		&LoginRequest{Email: "asha@school.edu", Password: "wrong-password"})
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = call[LoginRequest, LoginResponse](t, s, AuthLoginProcedure, "",
		&LoginRequest{Email: "not-an-email", Password: "password123"})
	wantCode(t, err, connect.CodeInvalidArgument)
	fields := FieldErrors(err)
	if len(fields) != 1 || fields[0].Field != "email" {
		t.Errorf("expected one email field error, got %+v", fields)
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	req := &RegisterRequest{
		Email:      "ravi@school.edu",
		FullName:   "Ravi Kumar",
		Department: "History",
		Password:   "password123",
		Roles:      []string{models.RoleTeacher},
	}

	_, err := call[RegisterRequest, RegisterResponse](t, s, AuthRegisterProcedure, s.teacher, req)
	wantCode(t, err, connect.CodePermissionDenied)

	resp, err := call[RegisterRequest, RegisterResponse](t, s, AuthRegisterProcedure, s.admin, req)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Member.ID == "" || resp.Member.Department != "History" {
		t.Errorf("unexpected member: %+v", resp.Member)
	}

	_, err = call[RegisterRequest, RegisterResponse](t, s, AuthRegisterProcedure, s.admin, req)
	wantCode(t, err, connect.CodeAlreadyExists)

	req.Email = "other@school.edu"
	req.Roles = []string{"Principal"}
	_, err = call[RegisterRequest, RegisterResponse](t, s, AuthRegisterProcedure, s.admin, req)
	wantCode(t, err, connect.CodeInvalidArgument)
	if fields := FieldErrors(err); len(fields) != 1 || fields[0].Field != "roles[0]" {
		t.Errorf("expected roles[0] field error, got %+v", fields)
	}
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)

	_, err := call[GenerateBillsRequest, GenerateBillsResponse](t, s, BillingGenerateBillsProcedure, "",
		&GenerateBillsRequest{Month: "2024-05"})
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = call[GenerateBillsRequest, GenerateBillsResponse](t, s, BillingGenerateBillsProcedure, s.teacher,
		&GenerateBillsRequest{Month: "2024-05"})
	wantCode(t, err, connect.CodePermissionDenied)

	_, err = call[DashboardRequest, DashboardResponse](t, s, BillingDashboardProcedure, s.manager, &DashboardRequest{})
	wantCode(t, err, connect.CodePermissionDenied)

	if _, err := call[ListBillsRequest, ListBillsResponse](t, s, BillingListBillsProcedure, s.manager, &ListBillsRequest{}); err != nil {
		t.Errorf("manager ListBills failed: %v", err)
	}
	if _, err := call[GetRosterRequest, RosterResponse](t, s, AttendanceGetRosterProcedure, s.manager, &GetRosterRequest{}); err != nil {
		t.Errorf("manager GetRoster failed: %v", err)
	}

	_, err = call[MyBillsRequest, MyBillsResponse](t, s, BillingMyBillsProcedure, s.manager, &MyBillsRequest{})
	wantCode(t, err, connect.CodePermissionDenied)

	_, err = call[GetRatesRequest, RatesResponse](t, s, SettingsGetRatesProcedure, s.manager, &GetRatesRequest{})
	wantCode(t, err, connect.CodePermissionDenied)
}

func TestRates(t *testing.T) {
	s := newTestServer(t)

	got, err := call[GetRatesRequest, RatesResponse](t, s, SettingsGetRatesProcedure, s.admin, &GetRatesRequest{})
	if err != nil {
		t.Fatalf("GetRates failed: %v", err)
	}
	if got.MealRate != "200.00" || got.UtilityCharge != "150.00" {
		t.Errorf("unexpected default rates: %+v", got)
	}

	got, err = call[SaveRatesRequest, RatesResponse](t, s, SettingsSaveRatesProcedure, s.admin,
		&SaveRatesRequest{MealRate: "250", UtilityCharge: "175.5"})
	if err != nil {
		t.Fatalf("SaveRates failed: %v", err)
	}
	if got.MealRate != "250.00" || got.UtilityCharge != "175.50" {
		t.Errorf("unexpected saved rates: %+v", got)
	}

	_, err = call[SaveRatesRequest, RatesResponse](t, s, SettingsSaveRatesProcedure, s.admin,
		&SaveRatesRequest{MealRate: "-5", UtilityCharge: "abc"})
	wantCode(t, err, connect.CodeInvalidArgument)
	fields := FieldErrors(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", fields)
	}
	if fields[0].Field != "meal_rate" || fields[1].Field != "utility_charge" {
		t.Errorf("unexpected fields: %+v", fields)
	}
	if fields[0].Error != "meal_rate must be a non-negative amount" {
		t.Errorf("unexpected message: %q", fields[0].Error)
	}
}

func TestBillingFlow(t *testing.T) {
	s := newTestServer(t)

	today, err := call[GetTodayRequest, TodayResponse](t, s, AttendanceGetTodayProcedure, s.teacher, &GetTodayRequest{})
	if err != nil {
		t.Fatalf("GetToday failed: %v", err)
	}
	if today.Saved || !today.CanEdit || today.Record.Date != "2024-05-10" {
		t.Errorf("unexpected today: %+v", today)
	}
	if !today.Record.HadBreakfast || !today.Record.HadLunch || !today.Record.HadDinner {
		t.Errorf("expected default-present placeholder, got %+v", today.Record)
	}

	if _, err := call[MarkAttendanceRequest, AttendanceResponse](t, s, AttendanceMarkProcedure, s.teacher,
		&MarkAttendanceRequest{HadBreakfast: true, SkipReason: "field trip"}); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	_, err = call[GenerateBillsRequest, GenerateBillsResponse](t, s, BillingGenerateBillsProcedure, s.admin,
		&GenerateBillsRequest{Month: "2024-13"})
	wantCode(t, err, connect.CodeInvalidArgument)

	gen, err := call[GenerateBillsRequest, GenerateBillsResponse](t, s, BillingGenerateBillsProcedure, s.admin,
		&GenerateBillsRequest{Month: "2024-05"})
	if err != nil {
		t.Fatalf("GenerateBills failed: %v", err)
	}
	if gen.Month != "2024-05" || len(gen.Generated) != 1 {
		t.Fatalf("unexpected generation result: %+v", gen)
	}
	bill := gen.Generated[0]
	if bill.TotalMeals != 1 || bill.MealTotal != "200.00" || bill.TotalAmount != "350.00" {
		t.Errorf("unexpected bill: %+v", bill)
	}

	again, err := call[GenerateBillsRequest, GenerateBillsResponse](t, s, BillingGenerateBillsProcedure, s.admin,
		&GenerateBillsRequest{Month: "2024-05"})
	if err != nil {
		t.Fatalf("second GenerateBills failed: %v", err)
	}
	if len(again.Generated) != 0 || len(again.Skipped) != 1 {
		t.Errorf("expected the existing bill to be skipped, got %+v", again)
	}

	mine, err := call[MyBillsRequest, MyBillsResponse](t, s, BillingMyBillsProcedure, s.teacher, &MyBillsRequest{})
	if err != nil {
		t.Fatalf("MyBills failed: %v", err)
	}
	if len(mine.Bills) != 1 || mine.Bills[0].MemberName != "Asha Rao" || mine.Bills[0].Balance != "350.00" {
		t.Fatalf("unexpected bills: %+v", mine.Bills)
	}

	if _, err := call[ReportIssueRequest, IssueResponse](t, s, IssueReportIssueProcedure, s.teacher,
		&ReportIssueRequest{BillID: bill.ID, Description: "I was away for most of May"}); err != nil {
		t.Fatalf("ReportIssue failed: %v", err)
	}

	paid, err := call[PayBillRequest, BillResponse](t, s, BillingPayBillProcedure, s.teacher, &PayBillRequest{BillID: bill.ID})
	if err != nil {
		t.Fatalf("PayBill failed: %v", err)
	}
	if !paid.Bill.IsPaid || paid.Bill.AmountPaid != "350.00" || paid.Bill.Balance != "0.00" {
		t.Errorf("unexpected paid bill: %+v", paid.Bill)
	}

	_, err = call[PayBillRequest, BillResponse](t, s, BillingPayBillProcedure, s.teacher, &PayBillRequest{BillID: bill.ID})
	wantCode(t, err, connect.CodeFailedPrecondition)

	dash, err := call[DashboardRequest, DashboardResponse](t, s, BillingDashboardProcedure, s.admin, &DashboardRequest{})
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dash.BillableMembers != 1 || dash.TotalBills != 1 || dash.OpenIssues != 1 {
		t.Errorf("unexpected dashboard counts: %+v", dash)
	}
	if dash.Revenue != "350.00" || dash.Unpaid != "0.00" {
		t.Errorf("unexpected dashboard amounts: %+v", dash)
	}

	list, err := call[ListIssuesRequest, ListIssuesResponse](t, s, IssueListIssuesProcedure, s.admin, &ListIssuesRequest{OpenOnly: true})
	if err != nil {
		t.Fatalf("ListIssues failed: %v", err)
	}
	if len(list.Issues) != 1 {
		t.Fatalf("expected 1 open issue, got %d", len(list.Issues))
	}
	resolved, err := call[ResolveIssueRequest, IssueResponse](t, s, IssueResolveIssueProcedure, s.admin,
		&ResolveIssueRequest{IssueID: list.Issues[0].ID, Notes: "checked the roster"})
	if err != nil {
		t.Fatalf("ResolveIssue failed: %v", err)
	}
	if !resolved.Issue.IsResolved {
		t.Error("expected issue to be resolved")
	}
}

func TestGetBillOwnership(t *testing.T) {
	s := newTestServer(t)

	gen, err := call[GenerateBillsRequest, GenerateBillsResponse](t, s, BillingGenerateBillsProcedure, s.admin,
		&GenerateBillsRequest{Month: "2024-04"})
	if err != nil {
		t.Fatalf("GenerateBills failed: %v", err)
	}
	if len(gen.Generated) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(gen.Generated))
	}
	billID := gen.Generated[0].ID
	// No attendance recorded, so only the utility charge applies.
	if gen.Generated[0].TotalAmount != "150.00" {
		t.Errorf("expected 150.00, got %s", gen.Generated[0].TotalAmount)
	}

	for name, token := range map[string]string{"owner": s.teacher, "manager": s.manager, "admin": s.admin} {
		if _, err := call[GetBillRequest, BillResponse](t, s, BillingGetBillProcedure, token, &GetBillRequest{BillID: billID}); err != nil {
			t.Errorf("%s GetBill failed: %v", name, err)
		}
	}

	_, err = call[GetBillRequest, BillResponse](t, s, BillingGetBillProcedure, s.admin, &GetBillRequest{BillID: "missing"})
	wantCode(t, err, connect.CodeNotFound)

	partial, err := call[MarkBillPaidRequest, BillResponse](t, s, BillingMarkBillPaidProcedure, s.admin,
		&MarkBillPaidRequest{BillID: billID, Amount: "50"})
	if err != nil {
		t.Fatalf("MarkBillPaid failed: %v", err)
	}
	if partial.Bill.IsPaid || partial.Bill.Balance != "100.00" {
		t.Errorf("unexpected partial payment: %+v", partial.Bill)
	}

	_, err = call[MarkBillPaidRequest, BillResponse](t, s, BillingMarkBillPaidProcedure, s.admin,
		&MarkBillPaidRequest{BillID: billID, Amount: "500"})
	wantCode(t, err, connect.CodeFailedPrecondition)

	_, err = call[MarkBillPaidRequest, BillResponse](t, s, BillingMarkBillPaidProcedure, s.admin,
		&MarkBillPaidRequest{BillID: billID, Amount: "0"})
	wantCode(t, err, connect.CodeInvalidArgument)
}

func TestAttendanceRoster(t *testing.T) {
	s := newTestServer(t)

	roster, err := call[GetRosterRequest, RosterResponse](t, s, AttendanceGetRosterProcedure, s.admin, &GetRosterRequest{})
	if err != nil {
		t.Fatalf("GetRoster failed: %v", err)
	}
	if roster.Date != "2024-05-10" || len(roster.Entries) != 1 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
	entry := roster.Entries[0]
	if entry.FullName != "Asha Rao" || entry.Saved {
		t.Errorf("unexpected entry: %+v", entry)
	}

	record := entry.Record
	record.HadDinner = false
	saved, err := call[SaveRosterRequest, SaveRosterResponse](t, s, AttendanceSaveRosterProcedure, s.admin,
		&SaveRosterRequest{Date: "2024-05-09", Records: []Attendance{record}})
	if err != nil {
		t.Fatalf("SaveRoster failed: %v", err)
	}
	if saved.Saved != 1 {
		t.Errorf("expected 1 saved, got %d", saved.Saved)
	}

	roster, err = call[GetRosterRequest, RosterResponse](t, s, AttendanceGetRosterProcedure, s.manager, &GetRosterRequest{Date: "2024-05-09"})
	if err != nil {
		t.Fatalf("GetRoster failed: %v", err)
	}
	if !roster.Entries[0].Saved || roster.Entries[0].Record.HadDinner {
		t.Errorf("expected saved record without dinner, got %+v", roster.Entries[0])
	}

	_, err = call[SaveRosterRequest, SaveRosterResponse](t, s, AttendanceSaveRosterProcedure, s.manager,
		&SaveRosterRequest{Records: []Attendance{record}})
	wantCode(t, err, connect.CodePermissionDenied)

	_, err = call[SaveRosterRequest, SaveRosterResponse](t, s, AttendanceSaveRosterProcedure, s.admin,
		&SaveRosterRequest{Records: []Attendance{{HadLunch: true}}})
	wantCode(t, err, connect.CodeInvalidArgument)
	if fields := FieldErrors(err); len(fields) != 1 || fields[0].Field != "records[0].member_id" {
		t.Errorf("unexpected field errors: %+v", fields)
	}

	// Another member's record is off limits to a teacher.
	_, err = call[MarkAttendanceRequest, AttendanceResponse](t, s, AttendanceMarkProcedure, s.teacher,
		&MarkAttendanceRequest{MemberID: record.MemberID + "x", HadLunch: true})
	wantCode(t, err, connect.CodePermissionDenied)
}
