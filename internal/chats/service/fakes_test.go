package service

import (
	"context"
	"sync"

	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
)

func backendChatsQuery() backend.Query {
	return backend.Query{Collection: "chats"}
}

type failingFinder struct {
	err error
}

func (f failingFinder) GetByNumber(context.Context, string) (*authdomain.Profile, error) {
	return nil, f.err
}

// recordingWriter records composer writes and can fail either of them.
type recordingWriter struct {
	mu        sync.Mutex
	appended  []domain.Message
	touched   []string
	appendErr error
	touchErr  error
}

func (w *recordingWriter) AppendMessage(_ context.Context, _ string, m domain.Message) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.appendErr != nil {
		return "", w.appendErr
	}
	w.appended = append(w.appended, m)
	return "msg-1", nil
}

func (w *recordingWriter) TouchConversation(_ context.Context, _ string, lastMessage string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.touchErr != nil {
		return w.touchErr
	}
	w.touched = append(w.touched, lastMessage)
	return nil
}

// manualConversations hands out subscriptions whose deliveries the test
// triggers by hand.
type manualConversations struct {
	mu        sync.Mutex
	callbacks map[string]func([]domain.Conversation, error)
	cancelled []string
}

func newManualConversations() *manualConversations {
	return &manualConversations{callbacks: make(map[string]func([]domain.Conversation, error))}
}

func (m *manualConversations) SubscribeConversations(_ context.Context, uid string, fn func([]domain.Conversation, error)) backend.Unsubscribe {
	m.mu.Lock()
	m.callbacks[uid] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.cancelled = append(m.cancelled, uid)
		m.mu.Unlock()
	}
}

func (m *manualConversations) deliver(uid string, list []domain.Conversation, err error) {
	m.mu.Lock()
	fn := m.callbacks[uid]
	m.mu.Unlock()
	fn(list, err)
}

type manualMessages struct {
	mu        sync.Mutex
	callbacks map[string]func([]domain.Message, error)
	events    []string
}

func newManualMessages() *manualMessages {
	return &manualMessages{callbacks: make(map[string]func([]domain.Message, error))}
}

func (m *manualMessages) SubscribeMessages(_ context.Context, id string, fn func([]domain.Message, error)) backend.Unsubscribe {
	m.mu.Lock()
	m.callbacks[id] = fn
	m.events = append(m.events, "open "+id)
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.events = append(m.events, "close "+id)
		m.mu.Unlock()
	}
}

func (m *manualMessages) deliver(id string, list []domain.Message, err error) {
	m.mu.Lock()
	fn := m.callbacks[id]
	m.mu.Unlock()
	fn(list, err)
}

func conversations(ids ...string) []domain.Conversation {
	out := make([]domain.Conversation, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Conversation{ID: id})
	}
	return out
}
