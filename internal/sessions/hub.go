package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
	"github.com/sixchat/sixchat-backend/internal/logger"
)

// ClientFactory builds a chat client around an auth session.
type ClientFactory func(ctx context.Context, auth backend.Auth) *chatclient.Client

type entry struct {
	client   *chatclient.Client
	lastSeen time.Time
}

// Hub keeps one live client per session token and rehydrates clients from
// the session store after a restart or an idle sweep.
type Hub struct {
	ctx       context.Context
	provider  backend.AuthProvider
	newClient ClientFactory
	store     *Store

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewHub creates a Hub. ctx bounds the lifetime of every hosted client.
func NewHub(ctx context.Context, provider backend.AuthProvider, store *Store, newClient ClientFactory) *Hub {
	return &Hub{
		ctx:       ctx,
		provider:  provider,
		newClient: newClient,
		store:     store,
		entries:   make(map[string]*entry),
		now:       time.Now,
	}
}

// NewClient returns a signed-out client that is not registered yet.
func (h *Hub) NewClient() *chatclient.Client {
	return h.newClient(h.ctx, h.provider.NewSession())
}

// Adopt returns an unregistered client already signed in as id, used when
// a caller brings an ID token minted elsewhere.
func (h *Hub) Adopt(id backend.Identity) *chatclient.Client {
	return h.newClient(h.ctx, h.provider.RestoreSession(id))
}

// Register issues a token for a client that has just signed in.
func (h *Hub) Register(ctx context.Context, c *chatclient.Client) (string, error) {
	id := c.Identity()
	if id == nil {
		return "", errors.New("client is not signed in")
	}
	rec, err := h.store.Create(ctx, *id)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.entries[rec.Token] = &entry{client: c, lastSeen: h.now()}
	h.mu.Unlock()
	return rec.Token, nil
}

// Get returns the client for token, restoring it from the store when it is
// not live in this process.
func (h *Hub) Get(ctx context.Context, token string) (*chatclient.Client, error) {
	if err := h.store.Touch(ctx, token); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.drop(token)
		}
		return nil, err
	}

	h.mu.Lock()
	if e, ok := h.entries[token]; ok {
		e.lastSeen = h.now()
		h.mu.Unlock()
		return e.client, nil
	}
	h.mu.Unlock()

	rec, err := h.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	restored := h.newClient(h.ctx, h.provider.RestoreSession(rec.Identity()))

	h.mu.Lock()
	if e, ok := h.entries[token]; ok {
		e.lastSeen = h.now()
		h.mu.Unlock()
		restored.Close()
		return e.client, nil
	}
	h.entries[token] = &entry{client: restored, lastSeen: h.now()}
	h.mu.Unlock()

	l := logger.FromContext(ctx)
	l.Info().Str("uid", rec.UID).Msg("session restored")
	return restored, nil
}

// Remove closes the client of token and deletes its record.
func (h *Hub) Remove(ctx context.Context, token string) error {
	h.drop(token)
	err := h.store.Delete(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

// RemoveUser closes every client of uid and revokes all of its tokens.
func (h *Hub) RemoveUser(ctx context.Context, uid string) (int, error) {
	tokens, err := h.store.DeleteByUID(ctx, uid)
	if err != nil {
		return 0, err
	}
	for _, token := range tokens {
		h.drop(token)
	}
	l := logger.FromContext(ctx)
	l.Info().Str("uid", uid).Int("revoked", len(tokens)).Msg("sessions revoked")
	return len(tokens), nil
}

func (h *Hub) drop(token string) {
	h.mu.Lock()
	e, ok := h.entries[token]
	delete(h.entries, token)
	h.mu.Unlock()
	if ok {
		e.client.Close()
	}
}

// SweepIdle closes clients unused for longer than idle. A client with an
// open watcher, such as an event stream, is in use. Swept tokens stay valid
// and the next request restores them.
func (h *Hub) SweepIdle(idle time.Duration) int {
	now := h.now()
	cutoff := now.Add(-idle)

	h.mu.Lock()
	var stale []*chatclient.Client
	for token, e := range h.entries {
		if e.client.Watching() {
			e.lastSeen = now
			continue
		}
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.client)
			delete(h.entries, token)
		}
	}
	h.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

// Len returns the number of live clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Ping checks the session store.
func (h *Hub) Ping(ctx context.Context) error {
	return h.store.Ping(ctx)
}

// Close closes every live client.
func (h *Hub) Close() {
	h.mu.Lock()
	entries := h.entries
	h.entries = make(map[string]*entry)
	h.mu.Unlock()

	for _, e := range entries {
		e.client.Close()
	}
}
