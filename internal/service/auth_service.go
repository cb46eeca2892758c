package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/auth"
	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a member account. Admin only; members do not sign themselves up.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	s.logger.Info("Register request", "email", req.Msg.Email, "roles", req.Msg.Roles)

	member, err := s.authenticator.Register(ctx, auth.Registration{
		Email:      req.Msg.Email,
		FullName:   req.Msg.FullName,
		Department: req.Msg.Department,
		Credential: req.Msg.Password,
		Roles:      req.Msg.Roles,
	})
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Member registered", "member_id", member.ID, "email", member.Email)
	return connect.NewResponse(&RegisterResponse{Member: toMember(member)}), nil
}

// Login authenticates a member and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	s.logger.Info("Login request", "email", req.Msg.Email)

	member, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(member)
	if err != nil {
		s.logger.Error("Failed to generate token", "member_id", member.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Member logged in", "member_id", member.ID, "email", member.Email)
	return connect.NewResponse(&LoginResponse{Member: toMember(member), Token: token}), nil
}
