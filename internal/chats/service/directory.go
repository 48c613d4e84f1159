package service

import (
	"context"
	"sync"

	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
	"github.com/sixchat/sixchat-backend/internal/logger"
	"github.com/sixchat/sixchat-backend/internal/subscription"
)

// ConversationSource streams a user's conversation list.
type ConversationSource interface {
	SubscribeConversations(ctx context.Context, uid string, fn func([]domain.Conversation, error)) backend.Unsubscribe
}

// Directory holds the live conversation list of one user and the active
// conversation selection.
type Directory struct {
	source   ConversationSource
	subs     *subscription.Manager
	onChange func()

	mu       sync.Mutex
	ctx      context.Context
	uid      string
	list     []domain.Conversation
	active   string
	received bool
	err      error
}

// NewDirectory creates a Directory. onChange, if set, runs after every state
// change without any Directory lock held.
func NewDirectory(source ConversationSource, subs *subscription.Manager, onChange func()) *Directory {
	return &Directory{source: source, subs: subs, onChange: onChange}
}

// Start replaces any current subscription with the list of uid. The
// selection is reset.
func (d *Directory) Start(ctx context.Context, uid string) {
	d.mu.Lock()
	tok := d.subs.Begin(subscription.KindConversations, uid)
	d.ctx = ctx
	d.uid = uid
	d.list = nil
	d.active = ""
	d.received = false
	d.err = nil
	d.mu.Unlock()
	d.changed()

	unsubscribe := d.source.SubscribeConversations(ctx, uid, func(list []domain.Conversation, err error) {
		d.apply(tok, list, err)
	})
	d.subs.Attach(tok, unsubscribe)
}

func (d *Directory) apply(tok subscription.Token, list []domain.Conversation, err error) {
	d.mu.Lock()
	if !d.subs.IsCurrent(tok) {
		d.mu.Unlock()
		return
	}
	if err != nil {
		d.err = err
		l := logger.Operation(d.ctx, "directory", "subscribe_conversations")
		d.mu.Unlock()
		l.Warn().Err(err).Str("uid", tok.Key).Msg("conversation list subscription failed")
		d.changed()
		return
	}

	d.list = list
	d.err = nil
	if !d.received && d.active == "" && len(list) > 0 {
		d.active = list[0].ID
	}
	d.received = true
	d.mu.Unlock()
	d.changed()
}

// Select makes id the active conversation. Later snapshots never change an
// explicit selection.
func (d *Directory) Select(id string) {
	d.mu.Lock()
	if d.active == id {
		d.mu.Unlock()
		return
	}
	d.active = id
	d.mu.Unlock()
	d.changed()
}

func (d *Directory) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Conversations returns a copy of the current list.
func (d *Directory) Conversations() []domain.Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Conversation, len(d.list))
	copy(out, d.list)
	return out
}

// Contains reports whether the current list holds id.
func (d *Directory) Contains(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.list {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Err returns the last subscription failure of the list, if any.
func (d *Directory) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Stop cancels the subscription and clears the list and selection.
func (d *Directory) Stop() {
	d.mu.Lock()
	d.subs.Cancel(subscription.KindConversations)
	d.uid = ""
	d.list = nil
	d.active = ""
	d.received = false
	d.err = nil
	d.mu.Unlock()
	d.changed()
}

func (d *Directory) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}
