// Package firebaseauth implements backend.AuthProvider against Firebase
// Authentication's password endpoints.
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

// Provider issues per-client auth sessions backed by one Identity Toolkit
// service.
type Provider struct {
	svc *identitytoolkit.Service
}

// NewProvider creates a Provider using the project's web API key.
func NewProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase api key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit: %w", err)
	}
	return &Provider{svc: svc}, nil
}

func (p *Provider) NewSession() backend.Auth {
	return &Session{svc: p.svc}
}

func (p *Provider) RestoreSession(id backend.Identity) backend.Auth {
	s := &Session{svc: p.svc}
	s.state.Set(&id)
	return s
}

// Session is one client's auth state.
type Session struct {
	svc   *identitytoolkit.Service
	state backend.AuthState
}

func (s *Session) CreateAccount(ctx context.Context, handle, password string) (*backend.Identity, error) {
	resp, err := s.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    handle,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}

	id := &backend.Identity{UID: resp.LocalId, Handle: resp.Email, IDToken: resp.IdToken}
	s.state.Set(id)
	return id, nil
}

func (s *Session) SignIn(ctx context.Context, handle, password string) (*backend.Identity, error) {
	resp, err := s.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             handle,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}

	id := &backend.Identity{UID: resp.LocalId, Handle: resp.Email, IDToken: resp.IdToken}
	s.state.Set(id)
	return id, nil
}

// SignOut only drops local state; Firebase ID tokens expire on their own.
func (s *Session) SignOut(ctx context.Context) error {
	s.state.Set(nil)
	return nil
}

func (s *Session) OnAuthStateChange(fn func(*backend.Identity)) backend.Unsubscribe {
	return s.state.Subscribe(fn)
}

func (s *Session) CurrentIdentity() *backend.Identity {
	return s.state.Current()
}

// errorCodes maps Identity Toolkit error messages to auth codes.
var errorCodes = []struct {
	prefix string
	code   string
}{
	{"EMAIL_EXISTS", backend.CodeHandleInUse},
	{"INVALID_EMAIL", backend.CodeInvalidHandle},
	{"MISSING_EMAIL", backend.CodeInvalidHandle},
	{"WEAK_PASSWORD", backend.CodeWeakPassword},
	{"INVALID_PASSWORD", backend.CodeWrongPassword},
	{"MISSING_PASSWORD", backend.CodeWrongPassword},
	{"INVALID_LOGIN_CREDENTIALS", backend.CodeInvalidCredential},
	{"EMAIL_NOT_FOUND", backend.CodeUserNotFound},
	{"TOO_MANY_ATTEMPTS_TRY_LATER", backend.CodeTooManyRequests},
	{"USER_DISABLED", backend.CodeUserDisabled},
}

func mapError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	for _, e := range errorCodes {
		if strings.HasPrefix(gerr.Message, e.prefix) {
			return &backend.AuthError{Code: e.code, Err: err}
		}
	}
	return &backend.AuthError{Code: backend.CodeUnknown, Err: err}
}

// TokenVerifier checks ID tokens with the Admin SDK.
type TokenVerifier struct {
	client *auth.Client
}

func NewTokenVerifier(client *auth.Client) *TokenVerifier {
	return &TokenVerifier{client: client}
}

func (v *TokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*backend.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, &backend.AuthError{Code: backend.CodeInvalidCredential, Err: err}
	}

	id := &backend.Identity{UID: token.UID, IDToken: idToken}
	if email, ok := token.Claims["email"].(string); ok {
		id.Handle = email
	}
	return id, nil
}
