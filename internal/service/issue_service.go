package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/issues"
	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
)

// IssueService implements the IssueService RPCs.
type IssueService struct {
	issues       *issues.Service
	billableRole string
}

func NewIssueService(i *issues.Service, billableRole string) *IssueService {
	return &IssueService{issues: i, billableRole: billableRole}
}

// ReportIssue flags a problem with one of the caller's bills.
func (s *IssueService) ReportIssue(ctx context.Context, req *connect.Request[ReportIssueRequest]) (*connect.Response[IssueResponse], error) {
	if err := middleware.RequireRole(ctx, s.billableRole); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	issue, err := s.issues.Report(ctx, middleware.GetMemberID(ctx), req.Msg.BillID, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&IssueResponse{Issue: toIssue(*issue)}), nil
}

// ListIssues returns reported issues, newest first. Admin only.
func (s *IssueService) ListIssues(ctx context.Context, req *connect.Request[ListIssuesRequest]) (*connect.Response[ListIssuesResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := s.issues.List(ctx, req.Msg.OpenOnly)
	if err != nil {
		return nil, toConnectError(err)
	}
	resp := &ListIssuesResponse{Issues: make([]Issue, len(list))}
	for i, issue := range list {
		resp.Issues[i] = toIssue(issue)
	}
	return connect.NewResponse(resp), nil
}

// ResolveIssue closes an issue with optional notes. Admin only.
func (s *IssueService) ResolveIssue(ctx context.Context, req *connect.Request[ResolveIssueRequest]) (*connect.Response[IssueResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	issue, err := s.issues.Resolve(ctx, req.Msg.IssueID, req.Msg.Notes)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&IssueResponse{Issue: toIssue(*issue)}), nil
}
