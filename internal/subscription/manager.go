// Package subscription tracks the live subscriptions owned by one client and
// guarantees at most one active subscription per kind.
package subscription

import (
	"sync"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

// Kind names a class of subscription.
type Kind string

const (
	KindProfile       Kind = "profile"
	KindConversations Kind = "conversations"
	KindMessages      Kind = "messages"
)

// Token identifies one registration. Deliveries carry the token they were
// registered with so the receiver can drop stale updates.
type Token struct {
	Kind Kind
	Key  string
	gen  uint64
}

type entry struct {
	token  Token
	cancel backend.Unsubscribe
}

// Manager holds the current registration for every kind.
type Manager struct {
	mu     sync.Mutex
	next   uint64
	active map[Kind]*entry
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{active: make(map[Kind]*entry)}
}

// Begin reserves a token for (kind, key). Any previous registration of the
// same kind is marked stale and cancelled before Begin returns, so the caller
// can open the replacement afterwards.
func (m *Manager) Begin(kind Kind, key string) Token {
	m.mu.Lock()
	old := m.active[kind]
	m.next++
	tok := Token{Kind: kind, Key: key, gen: m.next}
	m.active[kind] = &entry{token: tok}
	m.mu.Unlock()

	if old != nil && old.cancel != nil {
		old.cancel()
	}
	return tok
}

// Attach binds the backend unsubscribe function to tok. If tok was
// superseded in the meantime the subscription is cancelled right away.
func (m *Manager) Attach(tok Token, cancel backend.Unsubscribe) {
	if cancel == nil {
		return
	}
	m.mu.Lock()
	e := m.active[tok.Kind]
	if e == nil || e.token != tok {
		m.mu.Unlock()
		cancel()
		return
	}
	e.cancel = cancel
	m.mu.Unlock()
}

// Subscribe is Begin followed by Attach of whatever start returns.
func (m *Manager) Subscribe(kind Kind, key string, start func(tok Token) backend.Unsubscribe) Token {
	tok := m.Begin(kind, key)
	m.Attach(tok, start(tok))
	return tok
}

// IsCurrent reports whether tok is still the live registration of its kind.
func (m *Manager) IsCurrent(tok Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.active[tok.Kind]
	return e != nil && e.token == tok
}

// Active returns the key of the live registration of kind.
func (m *Manager) Active(kind Kind) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.active[kind]
	if e == nil {
		return "", false
	}
	return e.token.Key, true
}

// Cancel drops and cancels the registration of kind, if any.
func (m *Manager) Cancel(kind Kind) {
	m.mu.Lock()
	e := m.active[kind]
	delete(m.active, kind)
	m.mu.Unlock()

	if e != nil && e.cancel != nil {
		e.cancel()
	}
}

// CancelAll cancels every registration.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	entries := m.active
	m.active = make(map[Kind]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
}
