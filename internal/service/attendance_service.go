package service

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/attendance"
	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
)

// AttendanceService implements the AttendanceService RPCs.
type AttendanceService struct {
	attendance *attendance.Service
	cutoffHour int
}

func NewAttendanceService(a *attendance.Service, cutoffHour int) *AttendanceService {
	return &AttendanceService{attendance: a, cutoffHour: cutoffHour}
}

func actorFrom(ctx context.Context) attendance.Actor {
	return attendance.Actor{MemberID: middleware.GetMemberID(ctx), Roles: middleware.GetRoles(ctx)}
}

// GetToday returns the caller's record for today, or the default-present placeholder.
func (s *AttendanceService) GetToday(ctx context.Context, req *connect.Request[GetTodayRequest]) (*connect.Response[TodayResponse], error) {
	actor := actorFrom(ctx)
	record, saved, err := s.attendance.TodayRecord(ctx, actor.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TodayResponse{
		Record:     toAttendance(record),
		Saved:      saved,
		CanEdit:    s.attendance.CanEdit(actor, actor.MemberID) == nil,
		CutoffHour: s.cutoffHour,
	}), nil
}

// Mark saves today's record for the caller, or for any member when the caller is an admin.
func (s *AttendanceService) Mark(ctx context.Context, req *connect.Request[MarkAttendanceRequest]) (*connect.Response[AttendanceResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	actor := actorFrom(ctx)
	memberID := req.Msg.MemberID
	if memberID == "" {
		memberID = actor.MemberID
	}

	record, err := s.attendance.Mark(ctx, actor, memberID, attendance.Entry{
		HadBreakfast: req.Msg.HadBreakfast,
		HadLunch:     req.Msg.HadLunch,
		HadDinner:    req.Msg.HadDinner,
		SkipReason:   req.Msg.SkipReason,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AttendanceResponse{Record: toAttendance(record)}), nil
}

// GetRoster lists every billable member's record for a day. Admins and mess managers.
func (s *AttendanceService) GetRoster(ctx context.Context, req *connect.Request[GetRosterRequest]) (*connect.Response[RosterResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin, models.RoleMessManager); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	day, err := s.day(req.Msg.Date)
	if err != nil {
		return nil, err
	}

	roster, err := s.attendance.Roster(ctx, day)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RosterResponse{
		Date:    day.Format(models.DateLayout),
		Entries: toRosterEntries(roster),
	}), nil
}

// SaveRoster stores many members' records for a day. Admin only.
func (s *AttendanceService) SaveRoster(ctx context.Context, req *connect.Request[SaveRosterRequest]) (*connect.Response[SaveRosterResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	day, err := s.day(req.Msg.Date)
	if err != nil {
		return nil, err
	}

	records := make([]models.AttendanceRecord, len(req.Msg.Records))
	for i, r := range req.Msg.Records {
		records[i] = models.AttendanceRecord{
			MemberID:     r.MemberID,
			HadBreakfast: r.HadBreakfast,
			HadLunch:     r.HadLunch,
			HadDinner:    r.HadDinner,
			SkipReason:   r.SkipReason,
		}
	}
	if err := s.attendance.SaveRoster(ctx, actorFrom(ctx), day, records); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SaveRosterResponse{Saved: len(records)}), nil
}

func (s *AttendanceService) day(date string) (time.Time, error) {
	if date == "" {
		return s.attendance.Today(), nil
	}
	day, err := models.ParseDay(date)
	if err != nil {
		return time.Time{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return day, nil
}
