package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

const minPasswordLength = 6

type account struct {
	uid      string
	handle   string
	password string
}

// Accounts is an in-memory auth service shared by every session.
type Accounts struct {
	mu       sync.RWMutex
	byHandle map[string]*account
	byToken  map[string]*account
}

// NewAccounts creates an empty account registry.
func NewAccounts() *Accounts {
	return &Accounts{
		byHandle: make(map[string]*account),
		byToken:  make(map[string]*account),
	}
}

// NewSession returns a signed-out auth session.
func (a *Accounts) NewSession() backend.Auth {
	return &AuthSession{accounts: a}
}

// RestoreSession returns a session already signed in as id.
func (a *Accounts) RestoreSession(id backend.Identity) backend.Auth {
	s := &AuthSession{accounts: a}
	s.state.Set(&id)
	return s
}

// VerifyIDToken resolves a token issued by this registry.
func (a *Accounts) VerifyIDToken(ctx context.Context, token string) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.byToken[token]
	if !ok {
		return nil, &backend.AuthError{Code: backend.CodeInvalidCredential, Err: errors.New("unknown id token")}
	}
	return &backend.Identity{UID: acc.uid, Handle: acc.handle, IDToken: token}, nil
}

func (a *Accounts) create(handle, password string) (*backend.Identity, error) {
	if !strings.Contains(handle, "@") {
		return nil, &backend.AuthError{Code: backend.CodeInvalidHandle}
	}
	if len(password) < minPasswordLength {
		return nil, &backend.AuthError{Code: backend.CodeWeakPassword}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byHandle[handle]; exists {
		return nil, &backend.AuthError{Code: backend.CodeHandleInUse}
	}
	acc := &account{uid: strings.ReplaceAll(uuid.NewString(), "-", "")[:28], handle: handle, password: password}
	a.byHandle[handle] = acc
	return a.issueLocked(acc), nil
}

func (a *Accounts) verify(handle, password string) (*backend.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byHandle[handle]
	if !ok {
		return nil, &backend.AuthError{Code: backend.CodeUserNotFound}
	}
	if acc.password != password {
		return nil, &backend.AuthError{Code: backend.CodeWrongPassword}
	}
	return a.issueLocked(acc), nil
}

func (a *Accounts) issueLocked(acc *account) *backend.Identity {
	token := uuid.NewString()
	a.byToken[token] = acc
	return &backend.Identity{UID: acc.uid, Handle: acc.handle, IDToken: token}
}

// AuthSession is one client's auth state against Accounts.
type AuthSession struct {
	accounts *Accounts
	state    backend.AuthState
}

func (s *AuthSession) CreateAccount(ctx context.Context, handle, password string) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.accounts.create(handle, password)
	if err != nil {
		return nil, err
	}
	s.state.Set(id)
	return id, nil
}

func (s *AuthSession) SignIn(ctx context.Context, handle, password string) (*backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.accounts.verify(handle, password)
	if err != nil {
		return nil, err
	}
	s.state.Set(id)
	return id, nil
}

func (s *AuthSession) SignOut(ctx context.Context) error {
	s.state.Set(nil)
	return nil
}

func (s *AuthSession) OnAuthStateChange(fn func(*backend.Identity)) backend.Unsubscribe {
	return s.state.Subscribe(fn)
}

func (s *AuthSession) CurrentIdentity() *backend.Identity {
	return s.state.Current()
}
