package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = storage.ErrEmailExists
)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage storage.MemberStore
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage storage.MemberStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new member with a hashed password. Every role must already exist.
func (a *PasswordAuthenticator) Register(ctx context.Context, reg Registration) (*models.Member, error) {
	if err := a.ValidateCredential(reg.Credential); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reg.Credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := models.NewMember(email, reg.FullName, reg.Department, string(hashedPassword), reg.Roles)
	if err := a.storage.CreateMember(ctx, member); err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return member, nil
}

// Authenticate verifies the email and password, returning the member if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Member, error) {
	member, err := a.storage.GetMemberByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return member, nil
}

// EnsureAdmin creates an Admin account for email unless one already exists.
func (a *PasswordAuthenticator) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := a.storage.GetMemberByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	member, err := a.Register(ctx, Registration{
		Email:      email,
		FullName:   "Administrator",
		Credential: password,
		Roles:      []string{models.RoleAdmin},
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("Bootstrap admin created", "member_id", member.ID, "email", member.Email)
	return nil
}
