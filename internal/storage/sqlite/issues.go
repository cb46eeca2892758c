package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

const issueColumns = "id, member_id, bill_id, description, is_resolved, resolution_notes, created_at, resolved_at"

// CreateIssue persists a new bill issue.
func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *models.BillIssue) error {
	if issue.ID == "" {
		issue.ID = uuid.New().String()
	}
	if issue.CreatedAt == 0 {
		issue.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bill_issues ("+issueColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		issue.ID, issue.MemberID, issue.BillID, issue.Description, boolToInt(issue.IsResolved),
		nullIfEmpty(issue.ResolutionNotes), issue.CreatedAt, nullIfZero(issue.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

// GetIssue retrieves an issue by ID, or storage.ErrNotFound.
func (s *SQLiteStore) GetIssue(ctx context.Context, issueID string) (*models.BillIssue, error) {
	issue, err := scanIssue(s.db.QueryRowContext(ctx,
		"SELECT "+issueColumns+" FROM bill_issues WHERE id = ?", issueID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: issue %s", storage.ErrNotFound, issueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

// ResolveIssue marks an issue resolved with the given notes.
func (s *SQLiteStore) ResolveIssue(ctx context.Context, issueID, notes string, resolvedAt int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE bill_issues SET is_resolved = 1, resolution_notes = ?, resolved_at = ? WHERE id = ?",
		nullIfEmpty(notes), resolvedAt, issueID,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve issue: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolved rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: issue %s", storage.ErrNotFound, issueID)
	}
	return nil
}

// ListIssues returns issues newest first, optionally only unresolved ones.
func (s *SQLiteStore) ListIssues(ctx context.Context, openOnly bool) ([]models.BillIssue, error) {
	query := "SELECT " + issueColumns + " FROM bill_issues"
	if openOnly {
		query += " WHERE is_resolved = 0"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []models.BillIssue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issues: %w", err)
	}
	return issues, nil
}

func scanIssue(row rowScanner) (*models.BillIssue, error) {
	issue := &models.BillIssue{}
	var (
		resolved   int
		notes      sql.NullString
		resolvedAt sql.NullInt64
	)
	if err := row.Scan(&issue.ID, &issue.MemberID, &issue.BillID, &issue.Description,
		&resolved, &notes, &issue.CreatedAt, &resolvedAt); err != nil {
		return nil, err
	}
	issue.IsResolved = resolved != 0
	issue.ResolutionNotes = notes.String
	issue.ResolvedAt = resolvedAt.Int64
	return issue, nil
}
