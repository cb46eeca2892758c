package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

const attendanceColumns = "member_id, date, had_breakfast, had_lunch, had_dinner, skip_reason, marked_at"

// QueryAttendance returns the member's records for from <= date <= to, oldest first.
func (s *SQLiteStore) QueryAttendance(ctx context.Context, memberID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+attendanceColumns+` FROM attendance
		 WHERE member_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		memberID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	return records, nil
}

// GetAttendance returns the record for one day, or storage.ErrNotFound.
func (s *SQLiteStore) GetAttendance(ctx context.Context, memberID string, date time.Time) (*models.AttendanceRecord, error) {
	record, err := scanAttendance(s.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE member_id = ? AND date = ?",
		memberID, formatDate(date),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return record, nil
}

// UpsertAttendance inserts or replaces records keyed by (member, date) in one transaction.
func (s *SQLiteStore) UpsertAttendance(ctx context.Context, records ...models.AttendanceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO attendance ("+attendanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (member_id, date) DO UPDATE SET
			     had_breakfast = excluded.had_breakfast,
			     had_lunch = excluded.had_lunch,
			     had_dinner = excluded.had_dinner,
			     skip_reason = excluded.skip_reason,
			     marked_at = excluded.marked_at`,
			r.MemberID, formatDate(r.Date),
			boolToInt(r.HadBreakfast), boolToInt(r.HadLunch), boolToInt(r.HadDinner),
			nullIfEmpty(r.SkipReason), nullIfZero(r.MarkedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert attendance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanAttendance(row rowScanner) (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{}
	var (
		date                     string
		breakfast, lunch, dinner int
		reason                   sql.NullString
		markedAt                 sql.NullInt64
	)
	if err := row.Scan(&record.MemberID, &date, &breakfast, &lunch, &dinner, &reason, &markedAt); err != nil {
		return nil, err
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	record.Date = day
	record.HadBreakfast = breakfast != 0
	record.HadLunch = lunch != 0
	record.HadDinner = dinner != 0
	record.SkipReason = reason.String
	record.MarkedAt = markedAt.Int64
	return record, nil
}
