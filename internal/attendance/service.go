// Package attendance records which meals members take each day.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

var (
	ErrCutoffPassed = errors.New("attendance can only be changed before the daily cutoff")
	ErrNotOwner     = errors.New("members can only edit their own attendance")
	ErrForbidden    = errors.New("not allowed to edit attendance")
)

// DefaultCutoffHour is the local hour after which billable members can no longer edit today's record.
const DefaultCutoffHour = 9

// Store is the persistence the attendance service needs.
type Store interface {
	storage.MemberDirectory
	storage.AttendanceStore
	GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error)
}

// Actor is the member performing an edit.
type Actor struct {
	MemberID string
	Roles    []string
}

func (a Actor) has(role string) bool {
	return slices.Contains(a.Roles, role)
}

// Entry is the editable part of a day's record.
type Entry struct {
	HadBreakfast bool
	HadLunch     bool
	HadDinner    bool
	SkipReason   string
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Role       string
	CutoffHour int
	Location   *time.Location
	Now        func() time.Time
}

// Service enforces who may edit attendance and when.
type Service struct {
	store    Store
	role     string
	cutoff   int
	location *time.Location
	now      func() time.Time
}

// NewService creates an attendance service.
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:    store,
		role:     opts.Role,
		cutoff:   opts.CutoffHour,
		location: opts.Location,
		now:      opts.Now,
	}
	if s.role == "" {
		s.role = models.BillableRole
	}
	if s.cutoff <= 0 {
		s.cutoff = DefaultCutoffHour
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the calendar day in the service's time zone.
func (s *Service) Today() time.Time {
	return models.Day(s.now().In(s.location))
}

// CanEdit reports whether actor may change memberID's record right now.
func (s *Service) CanEdit(actor Actor, memberID string) error {
	if actor.has(models.RoleAdmin) {
		return nil
	}
	if !actor.has(s.role) {
		return ErrForbidden
	}
	if actor.MemberID != memberID {
		return ErrNotOwner
	}
	if s.now().In(s.location).Hour() >= s.cutoff {
		return fmt.Errorf("%w (%02d:00)", ErrCutoffPassed, s.cutoff)
	}
	return nil
}

// Mark saves memberID's record for today.
func (s *Service) Mark(ctx context.Context, actor Actor, memberID string, entry Entry) (models.AttendanceRecord, error) {
	if err := s.CanEdit(actor, memberID); err != nil {
		return models.AttendanceRecord{}, err
	}

	record := models.AttendanceRecord{
		MemberID:     memberID,
		Date:         s.Today(),
		HadBreakfast: entry.HadBreakfast,
		HadLunch:     entry.HadLunch,
		HadDinner:    entry.HadDinner,
		SkipReason:   entry.SkipReason,
		MarkedAt:     s.now().Unix(),
	}
	if err := s.store.UpsertAttendance(ctx, record); err != nil {
		return models.AttendanceRecord{}, err
	}
	slog.Debug("Attendance marked", "member_id", memberID, "by", actor.MemberID, "meals", record.Meals())
	return record, nil
}

// TodayRecord returns memberID's saved record for today, or an unsaved
// default-present record and false.
func (s *Service) TodayRecord(ctx context.Context, memberID string) (models.AttendanceRecord, bool, error) {
	today := s.Today()
	record, err := s.store.GetAttendance(ctx, memberID, today)
	if errors.Is(err, storage.ErrNotFound) {
		return models.DefaultPresent(memberID, today), false, nil
	}
	if err != nil {
		return models.AttendanceRecord{}, false, err
	}
	return *record, true, nil
}

// RosterEntry is one billable member's attendance for a day.
type RosterEntry struct {
	Member *models.Member
	Record models.AttendanceRecord

	// Saved is false when Record is the default-present placeholder.
	Saved bool
}

// Roster lists every billable member with their record for date, ordered by name.
func (s *Service) Roster(ctx context.Context, date time.Time) ([]RosterEntry, error) {
	day := models.Day(date)
	ids, err := s.store.ListMemberIDsInRole(ctx, s.role)
	if err != nil {
		return nil, err
	}
	members, err := s.store.GetMembersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	roster := make([]RosterEntry, 0, len(ids))
	for _, id := range ids {
		member, ok := members[id]
		if !ok {
			continue
		}
		entry := RosterEntry{Member: member, Record: models.DefaultPresent(id, day)}
		record, err := s.store.GetAttendance(ctx, id, day)
		switch {
		case err == nil:
			entry.Record, entry.Saved = *record, true
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
		roster = append(roster, entry)
	}

	slices.SortStableFunc(roster, func(a, b RosterEntry) int {
		return strings.Compare(a.Member.FullName, b.Member.FullName)
	})
	return roster, nil
}

// SaveRoster stores records for date in bulk. Admins only, any time.
func (s *Service) SaveRoster(ctx context.Context, actor Actor, date time.Time, records []models.AttendanceRecord) error {
	if !actor.has(models.RoleAdmin) {
		return ErrForbidden
	}
	day := models.Day(date)
	markedAt := s.now().Unix()
	for i := range records {
		records[i].Date = day
		records[i].MarkedAt = markedAt
	}
	if err := s.store.UpsertAttendance(ctx, records...); err != nil {
		return err
	}
	slog.Info("Attendance roster saved", "date", day.Format(models.DateLayout), "records", len(records), "by", actor.MemberID)
	return nil
}
