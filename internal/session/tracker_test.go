package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	authrepo "github.com/sixchat/sixchat-backend/internal/auth/repository"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/backend/memory"
	"github.com/sixchat/sixchat-backend/internal/subscription"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestTracker_SignedOutOnStart(t *testing.T) {
	tr := NewTracker(memory.NewAccounts().NewSession(), authrepo.NewUserRepository(memory.NewStore()), subscription.NewManager())
	assert.Equal(t, StateLoading, tr.Snapshot().State)

	tr.Start(context.Background())
	defer tr.Stop()

	snap := tr.Snapshot()
	assert.Equal(t, StateSignedOut, snap.State)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
}

func TestTracker_SignInLoadsProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	users := authrepo.NewUserRepository(store)
	auth := memory.NewAccounts().NewSession()

	tr := NewTracker(auth, users, subscription.NewManager())
	var mu sync.Mutex
	var states []Snapshot
	tr.OnChange(func(s Snapshot) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	tr.Start(ctx)
	defer tr.Stop()

	id, err := auth.CreateAccount(ctx, "111111@users.sixchat.app", "secret1")
	require.NoError(t, err)

	// The profile document does not exist yet: first snapshot ends loading
	// with an empty number.
	require.Eventually(t, func() bool {
		s := tr.Snapshot()
		return s.State == StateSignedIn && s.UID() == id.UID && s.Number == ""
	}, waitFor, tick)

	require.NoError(t, users.Create(ctx, id.UID, "111111"))
	require.NoError(t, users.UpdateDisplayName(ctx, id.UID, "Ana"))
	require.Eventually(t, func() bool {
		s := tr.Snapshot()
		return s.Number == "111111" && s.DisplayName == "Ana" && !s.Loading
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, StateSignedOut, states[0].State)
	assert.Equal(t, StateLoading, states[1].State)
	assert.Equal(t, id.UID, states[1].UID())
}

func TestTracker_SignOutClearsProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	users := authrepo.NewUserRepository(store)
	accounts := memory.NewAccounts()
	auth := accounts.NewSession()
	subs := subscription.NewManager()

	id, err := auth.CreateAccount(ctx, "111111@users.sixchat.app", "secret1")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, id.UID, "111111"))

	tr := NewTracker(auth, users, subs)
	tr.Start(ctx)
	defer tr.Stop()

	require.Eventually(t, func() bool { return tr.Snapshot().Number == "111111" }, waitFor, tick)

	require.NoError(t, auth.SignOut(ctx))
	snap := tr.Snapshot()
	assert.Equal(t, StateSignedOut, snap.State)
	assert.Empty(t, snap.Number)
	assert.Empty(t, snap.DisplayName)

	_, active := subs.Active(subscription.KindProfile)
	assert.False(t, active)

	// A write to the old profile must not leak back in.
	require.NoError(t, users.UpdateDisplayName(ctx, id.UID, "late"))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, tr.Snapshot().DisplayName)
}

// scriptedProfiles lets the test deliver profile snapshots by hand.
type scriptedProfiles struct {
	mu        sync.Mutex
	callbacks map[string]func(*authdomain.Profile, error)
}

func (s *scriptedProfiles) Subscribe(_ context.Context, uid string, fn func(*authdomain.Profile, error)) backend.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callbacks == nil {
		s.callbacks = make(map[string]func(*authdomain.Profile, error))
	}
	s.callbacks[uid] = fn
	return func() {}
}

func (s *scriptedProfiles) deliver(uid string, p *authdomain.Profile) {
	s.mu.Lock()
	fn := s.callbacks[uid]
	s.mu.Unlock()
	fn(p, nil)
}

func TestTracker_StaleProfileFromPreviousIdentityIsDropped(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccounts()
	_, err := accounts.NewSession().CreateAccount(ctx, "111111@users.sixchat.app", "secret1")
	require.NoError(t, err)
	_, err = accounts.NewSession().CreateAccount(ctx, "222222@users.sixchat.app", "secret2")
	require.NoError(t, err)

	auth := accounts.NewSession()
	profiles := &scriptedProfiles{}
	tr := NewTracker(auth, profiles, subscription.NewManager())
	tr.Start(ctx)
	defer tr.Stop()

	first, err := auth.SignIn(ctx, "111111@users.sixchat.app", "secret1")
	require.NoError(t, err)
	require.NoError(t, auth.SignOut(ctx))
	second, err := auth.SignIn(ctx, "222222@users.sixchat.app", "secret2")
	require.NoError(t, err)

	profiles.deliver(first.UID, &authdomain.Profile{UID: first.UID, Number: "111111"})
	snap := tr.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Number)

	profiles.deliver(second.UID, &authdomain.Profile{UID: second.UID, Number: "222222"})
	snap = tr.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "222222", snap.Number)
	assert.Equal(t, second.UID, snap.UID())
}

func TestTracker_LaterSnapshotsKeepLoadingUntouched(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccounts()
	auth := accounts.NewSession()
	profiles := &scriptedProfiles{}
	tr := NewTracker(auth, profiles, subscription.NewManager())
	tr.Start(ctx)
	defer tr.Stop()

	id, err := auth.CreateAccount(ctx, "111111@users.sixchat.app", "secret1")
	require.NoError(t, err)
	assert.True(t, tr.Snapshot().Loading)

	profiles.deliver(id.UID, nil)
	assert.False(t, tr.Snapshot().Loading)

	profiles.deliver(id.UID, &authdomain.Profile{Number: "111111", DisplayName: "Ana"})
	snap := tr.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "Ana", snap.DisplayName)
}
