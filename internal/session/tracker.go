// Package session tracks the signed-in identity of one client together with
// its live profile document.
package session

import (
	"context"
	"sync"

	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/logger"
	"github.com/sixchat/sixchat-backend/internal/subscription"
)

type State string

const (
	StateLoading   State = "loading"
	StateSignedOut State = "signed_out"
	StateSignedIn  State = "signed_in"
)

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	State       State             `json:"state"`
	Loading     bool              `json:"loading"`
	Identity    *backend.Identity `json:"identity,omitempty"`
	Number      string            `json:"number"`
	DisplayName string            `json:"display_name"`
	Err         string            `json:"error,omitempty"`
}

// UID returns the signed-in uid, or "".
func (s Snapshot) UID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UID
}

// ProfileSource streams one profile document. A missing document arrives as
// a nil profile.
type ProfileSource interface {
	Subscribe(ctx context.Context, uid string, fn func(*authdomain.Profile, error)) backend.Unsubscribe
}

type Tracker struct {
	auth     backend.Auth
	profiles ProfileSource
	subs     *subscription.Manager

	notifyMu sync.Mutex

	mu          sync.Mutex
	ctx         context.Context
	identity    *backend.Identity
	number      string
	displayName string
	loading     bool
	profileSeen bool
	err         error
	listeners   []func(Snapshot)
	stopAuth    backend.Unsubscribe
}

func NewTracker(auth backend.Auth, profiles ProfileSource, subs *subscription.Manager) *Tracker {
	return &Tracker{
		auth:     auth,
		profiles: profiles,
		subs:     subs,
		ctx:      context.Background(),
		loading:  true,
	}
}

// OnChange registers fn for every state change. Register before Start to
// observe the initial auth notification.
func (t *Tracker) OnChange(fn func(Snapshot)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Start subscribes to auth state changes. ctx scopes the profile
// subscriptions.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	t.ctx = ctx
	t.mu.Unlock()

	stop := t.auth.OnAuthStateChange(t.handleAuth)

	t.mu.Lock()
	t.stopAuth = stop
	t.mu.Unlock()
}

// Stop detaches from auth and cancels the profile subscription.
func (t *Tracker) Stop() {
	t.mu.Lock()
	stop := t.stopAuth
	t.stopAuth = nil
	t.subs.Cancel(subscription.KindProfile)
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (t *Tracker) handleAuth(id *backend.Identity) {
	if id == nil {
		t.mu.Lock()
		t.subs.Cancel(subscription.KindProfile)
		t.identity = nil
		t.number = ""
		t.displayName = ""
		t.loading = false
		t.profileSeen = false
		t.err = nil
		t.mu.Unlock()
		t.notify()
		return
	}

	t.mu.Lock()
	tok := t.subs.Begin(subscription.KindProfile, id.UID)
	t.identity = id
	t.number = ""
	t.displayName = ""
	t.loading = true
	t.profileSeen = false
	t.err = nil
	ctx := t.ctx
	t.mu.Unlock()
	t.notify()

	stop := t.profiles.Subscribe(ctx, id.UID, func(p *authdomain.Profile, err error) {
		t.applyProfile(tok, p, err)
	})
	t.subs.Attach(tok, stop)
}

func (t *Tracker) applyProfile(tok subscription.Token, p *authdomain.Profile, err error) {
	t.mu.Lock()
	if !t.subs.IsCurrent(tok) {
		t.mu.Unlock()
		return
	}

	if err != nil {
		t.err = err
		t.loading = false
		t.profileSeen = true
		l := logger.Operation(t.ctx, "session", "subscribe_profile")
		t.mu.Unlock()
		l.Warn().Err(err).Str("uid", tok.Key).Msg("profile subscription failed")
		t.notify()
		return
	}

	if p != nil {
		t.number = p.Number
		t.displayName = p.DisplayName
	} else {
		t.number = ""
		t.displayName = ""
	}
	if !t.profileSeen {
		t.profileSeen = true
		t.loading = false
	}
	t.mu.Unlock()
	t.notify()
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := Snapshot{
		Loading:     t.loading,
		Number:      t.number,
		DisplayName: t.displayName,
	}
	if t.identity != nil {
		id := *t.identity
		s.Identity = &id
	}
	if t.err != nil {
		s.Err = t.err.Error()
	}

	switch {
	case t.loading:
		s.State = StateLoading
	case t.identity == nil:
		s.State = StateSignedOut
	default:
		s.State = StateSignedIn
	}
	return s
}

// notify fans the current state out to listeners. Fan-outs are serialized so
// a listener never sees an older state after a newer one.
func (t *Tracker) notify() {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	snap := t.snapshotLocked()
	fns := make([]func(Snapshot), len(t.listeners))
	copy(fns, t.listeners)
	t.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
