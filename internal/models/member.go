package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role names. Billing is driven by BillableRole unless configured otherwise.
const (
	RoleAdmin       = "Admin"
	RoleMessManager = "MessManager"
	RoleTeacher     = "Teacher"

	BillableRole = RoleTeacher
)

// AllRoles lists every role seeded into a fresh store.
var AllRoles = []string{RoleAdmin, RoleMessManager, RoleTeacher}

// Member represents a user account of the mess portal.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Email is the login name (unique).
	Email string

	// FullName is the display name shown on bills.
	FullName string

	// Department is printed on bills.
	Department string

	// PasswordHash is the bcrypt hash of the member's password.
	PasswordHash string

	// IsActive is informational only. Billing ignores it and bills every
	// holder of the billable role.
	IsActive bool

	// Roles are the role names held by the member.
	Roles []string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64
}

// NewMember creates an active member with a fresh ID.
func NewMember(email, fullName, department, passwordHash string, roles []string) *Member {
	now := time.Now().Unix()
	return &Member{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		Department:   department,
		PasswordHash: passwordHash,
		IsActive:     true,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasRole reports whether the member holds the named role.
func (m *Member) HasRole(role string) bool {
	return slices.Contains(m.Roles, role)
}
