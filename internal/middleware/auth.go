package middleware

import (
	"context"
	"errors"
	"slices"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// MemberIDKey is the context key for storing the authenticated member ID.
	MemberIDKey contextKey = "member_id"
	// EmailKey is the context key for storing the authenticated member's email.
	EmailKey contextKey = "email"
	// RolesKey is the context key for storing the authenticated member's roles.
	RolesKey contextKey = "roles"
)

// ErrPermissionDenied is returned when the caller lacks every required role.
var ErrPermissionDenied = errors.New("permission denied")

// WithIdentity returns ctx carrying the given member identity.
func WithIdentity(ctx context.Context, memberID, email string, roles []string) context.Context {
	ctx = context.WithValue(ctx, MemberIDKey, memberID)
	ctx = context.WithValue(ctx, EmailKey, email)
	return context.WithValue(ctx, RolesKey, roles)
}

// GetMemberID extracts the member ID from the context.
// Returns empty string if not found.
func GetMemberID(ctx context.Context) string {
	memberID, _ := ctx.Value(MemberIDKey).(string)
	return memberID
}

// GetEmail extracts the member email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// GetRoles extracts the member's roles from the context.
func GetRoles(ctx context.Context) []string {
	roles, _ := ctx.Value(RolesKey).([]string)
	return roles
}

// RequireRole returns a PermissionDenied error unless the caller holds one of roles.
func RequireRole(ctx context.Context, roles ...string) error {
	held := GetRoles(ctx)
	for _, role := range roles {
		if slices.Contains(held, role) {
			return nil
		}
	}
	return connect.NewError(connect.CodePermissionDenied, ErrPermissionDenied)
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the member ID, email and roles to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithIdentity(ctx, claims.MemberID, claims.Email, claims.Roles), req)
		}
	}
}
