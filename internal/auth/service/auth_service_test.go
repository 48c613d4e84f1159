package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/auth/repository"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/backend/memory"
)

func newService(t *testing.T) (*AuthService, *memory.Store, *memory.Accounts) {
	t.Helper()
	store := memory.NewStore()
	accounts := memory.NewAccounts()
	return NewAuthService(accounts.NewSession(), repository.NewUserRepository(store)), store, accounts
}

func TestAuthService_SignUpCreatesProfile(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	id, err := svc.SignUp(ctx, domain.SignUpRequest{Number: "111111", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "111111@users.sixchat.app", id.Handle)

	snap, err := store.GetDocument(ctx, "users/"+id.UID)
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.Equal(t, "111111", snap.String("number"))
	assert.Equal(t, "", snap.String("displayName"))
	assert.False(t, snap.Time("createdAt").IsZero())
}

func TestAuthService_SignUpValidation(t *testing.T) {
	tests := []struct {
		name   string
		req    domain.SignUpRequest
		fields []string
	}{
		{"short number", domain.SignUpRequest{Number: "123", Password: "secret1", Confirm: "secret1"}, []string{domain.FieldNumber}},
		{"empty password", domain.SignUpRequest{Number: "123456"}, []string{domain.FieldPassword}},
		{"mismatch", domain.SignUpRequest{Number: "123456", Password: "secret1", Confirm: "secret2"}, []string{domain.FieldConfirm}},
		{"everything", domain.SignUpRequest{Number: "", Password: "", Confirm: "x"}, []string{domain.FieldNumber, domain.FieldPassword, domain.FieldConfirm}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService(t)
			_, err := svc.SignUp(context.Background(), tt.req)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Zero(t, store.Writes())
		})
	}
}

func TestAuthService_SignUpDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accounts := memory.NewAccounts()
	users := repository.NewUserRepository(store)

	first := NewAuthService(accounts.NewSession(), users)
	_, err := first.SignUp(ctx, domain.SignUpRequest{Number: "111111", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)

	second := NewAuthService(accounts.NewSession(), users)
	_, err = second.SignUp(ctx, domain.SignUpRequest{Number: "111111", Password: "other12", Confirm: "other12"})

	var ae *domain.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, backend.CodeHandleInUse, ae.Code)
	assert.Equal(t, "This ID is already taken.", ae.Message)
	assert.Equal(t, 1, store.Writes())
}

func TestAuthService_SignIn(t *testing.T) {
	ctx := context.Background()
	svc, _, accounts := newService(t)
	_, err := svc.SignUp(ctx, domain.SignUpRequest{Number: "111111", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)

	other := NewAuthService(accounts.NewSession(), nil)

	_, err = other.SignIn(ctx, domain.SignInRequest{Number: "111111", Password: "wrong"})
	var ae *domain.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Wrong ID or password.", ae.Message)

	_, err = other.SignIn(ctx, domain.SignInRequest{Number: "424242", Password: "secret1"})
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, backend.CodeUserNotFound, ae.Code)

	_, err = other.SignIn(ctx, domain.SignInRequest{Number: "4242", Password: ""})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)

	id, err := other.SignIn(ctx, domain.SignInRequest{Number: "111 111", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "111111@users.sixchat.app", id.Handle)
}

func TestAuthService_UpdateDisplayName(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	assert.ErrorIs(t, svc.UpdateDisplayName(ctx, "Ana"), domain.ErrNotSignedIn)

	id, err := svc.SignUp(ctx, domain.SignUpRequest{Number: "111111", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateDisplayName(ctx, "  Ana "))

	snap, err := store.GetDocument(ctx, "users/"+id.UID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", snap.String("displayName"))
	assert.Equal(t, "111111", snap.String("number"))

	require.NoError(t, svc.SignOut(ctx))
	assert.ErrorIs(t, svc.UpdateDisplayName(ctx, "Bob"), domain.ErrNotSignedIn)
}

func TestAuthService_SignUpProfileWriteFailureKeepsCredential(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accounts := memory.NewAccounts()
	auth := accounts.NewSession()
	svc := NewAuthService(auth, repository.NewUserRepository(store))

	boom := errors.New("permission denied")
	store.FailWrites(boom)

	id, err := svc.SignUp(ctx, domain.SignUpRequest{Number: "777777", Password: "secret1", Confirm: "secret1"})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, id)
	require.NotNil(t, auth.CurrentIdentity())
	assert.Equal(t, id.UID, auth.CurrentIdentity().UID)

	store.FailWrites(nil)
	snap, err := store.GetDocument(ctx, "users/"+id.UID)
	require.NoError(t, err)
	assert.False(t, snap.Exists)
}
