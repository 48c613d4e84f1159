package service

import (
	"context"
	"strings"

	"github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/identity"
	"github.com/sixchat/sixchat-backend/internal/logger"
)

// ProfileWriter persists the profile fields owned by account flows.
type ProfileWriter interface {
	Create(ctx context.Context, uid, number string) error
	UpdateDisplayName(ctx context.Context, uid, name string) error
}

// AuthService runs the account flows of one client session.
type AuthService struct {
	auth  backend.Auth
	users ProfileWriter
}

func NewAuthService(auth backend.Auth, users ProfileWriter) *AuthService {
	return &AuthService{
		auth:  auth,
		users: users,
	}
}

// SignUp creates the credential for a six-digit ID and then its profile
// document. The two writes are independent: if the profile write fails the
// credential stays signed in without a profile, and starting conversations
// fails with ErrProfileIncomplete until a profile exists.
func (s *AuthService) SignUp(ctx context.Context, req domain.SignUpRequest) (*backend.Identity, error) {
	number := identity.SanitizeNumber(req.Number)

	fields := make(map[string]string)
	if !identity.IsValidNumber(number) {
		fields[domain.FieldNumber] = "Enter your 6-digit ID."
	}
	if req.Password == "" {
		fields[domain.FieldPassword] = "Enter a password."
	}
	if req.Confirm != req.Password {
		fields[domain.FieldConfirm] = "Passwords do not match."
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	id, err := s.auth.CreateAccount(ctx, identity.ToCredentialHandle(number), req.Password)
	if err != nil {
		ae := domain.NewAuthError(err)
		l := logger.Operation(ctx, "auth", "sign_up")
		l.Info().Str("code", ae.Code).Msg("account creation rejected")
		return nil, ae
	}

	if err := s.users.Create(ctx, id.UID, number); err != nil {
		l := logger.Operation(ctx, "auth", "sign_up")
		l.Error().Err(err).Str("uid", id.UID).Msg("credential created without profile")
		return id, err
	}
	return id, nil
}

// SignIn authenticates a six-digit ID.
func (s *AuthService) SignIn(ctx context.Context, req domain.SignInRequest) (*backend.Identity, error) {
	number := identity.SanitizeNumber(req.Number)

	fields := make(map[string]string)
	if !identity.IsValidNumber(number) {
		fields[domain.FieldNumber] = "Enter your 6-digit ID."
	}
	if req.Password == "" {
		fields[domain.FieldPassword] = "Enter a password."
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	id, err := s.auth.SignIn(ctx, identity.ToCredentialHandle(number), req.Password)
	if err != nil {
		ae := domain.NewAuthError(err)
		l := logger.Operation(ctx, "auth", "sign_in")
		l.Info().Str("code", ae.Code).Msg("sign in rejected")
		return nil, ae
	}
	return id, nil
}

func (s *AuthService) SignOut(ctx context.Context) error {
	return s.auth.SignOut(ctx)
}

// UpdateDisplayName stores the trimmed name on the signed-in profile.
func (s *AuthService) UpdateDisplayName(ctx context.Context, name string) error {
	id := s.auth.CurrentIdentity()
	if id == nil {
		return domain.ErrNotSignedIn
	}
	return s.users.UpdateDisplayName(ctx, id.UID, strings.TrimSpace(name))
}
