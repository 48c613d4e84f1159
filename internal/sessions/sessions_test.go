package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/backend/memory"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestStore_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewStore(client, time.Hour)

	rec, err := store.Create(ctx, backend.Identity{UID: "uid-1", Handle: "111111@users.sixchat.app", IDToken: "tok"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Token)
	assert.True(t, mr.Exists("chat:session:"+rec.Token))
	assert.Equal(t, time.Hour, mr.TTL("chat:session:"+rec.Token))

	got, err := store.Get(ctx, rec.Token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.UID)
	assert.Equal(t, "tok", got.Identity().IDToken)

	tokens, err := store.ListByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{rec.Token}, tokens)

	require.NoError(t, store.Delete(ctx, rec.Token))
	_, err = store.Get(ctx, rec.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, rec.Token), ErrSessionNotFound)
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewStore(client, time.Minute)

	rec, err := store.Create(ctx, backend.Identity{UID: "uid-1"})
	require.NoError(t, err)

	mr.FastForward(30 * time.Second)
	require.NoError(t, store.Touch(ctx, rec.Token))
	mr.FastForward(45 * time.Second)
	_, err = store.Get(ctx, rec.Token)
	require.NoError(t, err, "touch slides the expiry")

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, store.Touch(ctx, rec.Token), ErrSessionNotFound)
}

type hubFixture struct {
	hub      *Hub
	mr       *miniredis.Miniredis
	accounts *memory.Accounts
	store    *memory.Store
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	client, mr := setupTestRedis(t)
	accounts := memory.NewAccounts()
	docs := memory.NewStore()

	hub := NewHub(context.Background(), accounts, NewStore(client, time.Hour), func(ctx context.Context, auth backend.Auth) *chatclient.Client {
		return chatclient.New(ctx, chatclient.Config{Auth: auth, Store: docs})
	})
	t.Cleanup(hub.Close)
	return &hubFixture{hub: hub, mr: mr, accounts: accounts, store: docs}
}

func (f *hubFixture) signedIn(t *testing.T, number string) (string, *chatclient.Client) {
	t.Helper()
	ctx := context.Background()
	c := f.hub.NewClient()
	_, err := c.SignUp(ctx, authdomain.SignUpRequest{Number: number, Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)
	token, err := f.hub.Register(ctx, c)
	require.NoError(t, err)
	return token, c
}

func TestHub_RegisterAndGet(t *testing.T) {
	f := newHubFixture(t)
	token, c := f.signedIn(t, "111111")

	got, err := f.hub.Get(context.Background(), token)
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, 1, f.hub.Len())
}

func TestHub_RegisterRequiresSignIn(t *testing.T) {
	f := newHubFixture(t)
	_, err := f.hub.Register(context.Background(), f.hub.NewClient())
	assert.Error(t, err)
}

func TestHub_SweepThenRestore(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t)
	token, original := f.signedIn(t, "111111")
	uid := original.Identity().UID

	now := time.Now()
	f.hub.now = func() time.Time { return now.Add(time.Hour) }
	assert.Equal(t, 1, f.hub.SweepIdle(30*time.Minute))
	assert.Equal(t, 0, f.hub.Len())

	restored, err := f.hub.Get(ctx, token)
	require.NoError(t, err)
	assert.NotSame(t, original, restored)
	assert.Equal(t, uid, restored.Identity().UID)

	require.Eventually(t, func() bool {
		return restored.State().Session.Number == "111111"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHub_RemoveInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t)
	token, _ := f.signedIn(t, "111111")

	require.NoError(t, f.hub.Remove(ctx, token))
	assert.Equal(t, 0, f.hub.Len())

	_, err := f.hub.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, f.hub.Remove(ctx, token))
}

func TestHub_ExpiredTokenDropsClient(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t)
	token, _ := f.signedIn(t, "111111")

	f.mr.FastForward(2 * time.Hour)
	_, err := f.hub.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, f.hub.Len())
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	f := newHubFixture(t)
	_, err := NewSweeper(f.hub, time.Minute, "not a schedule")
	assert.Error(t, err)

	s, err := NewSweeper(f.hub, time.Minute, "*/30 * * * * *")
	require.NoError(t, err)
	s.Start()
	<-s.Stop().Done()
}

func TestHub_AdoptSignedInIdentity(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t)
	_, original := f.signedIn(t, "222222")
	id := *original.Identity()

	adopted := f.hub.Adopt(id)
	require.NotNil(t, adopted.Identity())
	assert.Equal(t, id.UID, adopted.Identity().UID)

	token, err := f.hub.Register(ctx, adopted)
	require.NoError(t, err)
	got, err := f.hub.Get(ctx, token)
	require.NoError(t, err)
	assert.Same(t, adopted, got)
}

func TestHub_SweepKeepsWatchedClients(t *testing.T) {
	f := newHubFixture(t)
	_, c := f.signedIn(t, "111111")

	w, unwatch := c.Watch()
	now := time.Now()
	f.hub.now = func() time.Time { return now.Add(time.Hour) }

	assert.Equal(t, 0, f.hub.SweepIdle(30*time.Minute))
	assert.Equal(t, 1, f.hub.Len())
	select {
	case <-w.Done():
		t.Fatal("watcher closed by sweep")
	default:
	}

	unwatch()
	f.hub.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.Equal(t, 1, f.hub.SweepIdle(30*time.Minute))
	assert.Equal(t, 0, f.hub.Len())
}

func TestStore_DeleteByUID(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewStore(client, time.Hour)

	a, err := store.Create(ctx, backend.Identity{UID: "u1", Handle: "111111@users.sixchat.app"})
	require.NoError(t, err)
	b, err := store.Create(ctx, backend.Identity{UID: "u1", Handle: "111111@users.sixchat.app"})
	require.NoError(t, err)
	keep, err := store.Create(ctx, backend.Identity{UID: "u2", Handle: "222222@users.sixchat.app"})
	require.NoError(t, err)

	tokens, err := store.DeleteByUID(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.Token, b.Token}, tokens)

	_, err = store.Get(ctx, a.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, b.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists(userKey("u1")))

	_, err = store.Get(ctx, keep.Token)
	assert.NoError(t, err)
}

func TestHub_RemoveUserClosesEveryClient(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t)
	token, c := f.signedIn(t, "111111")

	again := f.hub.Adopt(*c.Identity())
	second, err := f.hub.Register(ctx, again)
	require.NoError(t, err)
	w, _ := again.Watch()
	require.Equal(t, 2, f.hub.Len())

	revoked, err := f.hub.RemoveUser(ctx, c.Identity().UID)
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)
	assert.Equal(t, 0, f.hub.Len())

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("watcher of revoked client still open")
	}
	for _, tok := range []string{token, second} {
		_, err := f.hub.Get(ctx, tok)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
}
