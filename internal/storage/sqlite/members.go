package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

const memberColumns = "id, email, full_name, department, password_hash, is_active, created_at, updated_at"

// CreateMember inserts a new member and their role assignments.
// Every role must already exist.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO members ("+memberColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		member.ID, member.Email, member.FullName, member.Department, member.PasswordHash,
		boolToInt(member.IsActive), member.CreatedAt, member.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return storage.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	for _, role := range member.Roles {
		var roleID int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name = ?", role).Scan(&roleID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", storage.ErrRoleNotFound, role)
		}
		if err != nil {
			return fmt.Errorf("failed to look up role: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO member_roles (member_id, role_id) VALUES (?, ?)", member.ID, roleID,
		); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMemberByEmail retrieves a member by email, or storage.ErrNotFound.
func (s *SQLiteStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.getMember(ctx, "email", email)
}

// GetMemberByID retrieves a member by ID, or storage.ErrNotFound.
func (s *SQLiteStore) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	return s.getMember(ctx, "id", id)
}

func (s *SQLiteStore) getMember(ctx context.Context, column, value string) (*models.Member, error) {
	member, err := scanMember(s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+column+" = ?", value,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by %s: %w", column, err)
	}

	roles, err := s.memberRoles(ctx, []string{member.ID})
	if err != nil {
		return nil, err
	}
	member.Roles = roles[member.ID]
	return member, nil
}

// GetMembersByIDs retrieves multiple members by their IDs.
// Members that don't exist are omitted from the result.
func (s *SQLiteStore) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	members := make(map[string]*models.Member, len(ids))
	if len(ids) == 0 {
		return members, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id IN ("+placeholders(len(ids))+")",
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members by IDs: %w", err)
	}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[member.ID] = member
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	roles, err := s.memberRoles(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, member := range members {
		member.Roles = roles[id]
	}
	return members, nil
}

// ListMemberIDsInRole returns member IDs holding the role, ordered by ID.
func (s *SQLiteStore) ListMemberIDsInRole(ctx context.Context, role string) ([]string, error) {
	var roleID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM roles WHERE name = ?", role).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrRoleNotFound, role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up role: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id FROM member_roles WHERE role_id = ? ORDER BY member_id", roleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list role members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role members: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) memberRoles(ctx context.Context, ids []string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mr.member_id, r.name FROM member_roles mr
		 JOIN roles r ON r.id = mr.role_id
		 WHERE mr.member_id IN (`+placeholders(len(ids))+`)
		 ORDER BY r.name`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get member roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[string][]string)
	for rows.Next() {
		var memberID, name string
		if err := rows.Scan(&memberID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles[memberID] = append(roles[memberID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	member := &models.Member{}
	var active int
	if err := row.Scan(
		&member.ID,
		&member.Email,
		&member.FullName,
		&member.Department,
		&member.PasswordHash,
		&active,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	member.IsActive = active != 0
	return member, nil
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
