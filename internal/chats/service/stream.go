package service

import (
	"context"
	"sync"

	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
	"github.com/sixchat/sixchat-backend/internal/logger"
	"github.com/sixchat/sixchat-backend/internal/subscription"
)

// MessageSource streams the messages of one conversation.
type MessageSource interface {
	SubscribeMessages(ctx context.Context, conversationID string, fn func([]domain.Message, error)) backend.Unsubscribe
}

// Stream holds the live messages of the active conversation.
type Stream struct {
	source   MessageSource
	subs     *subscription.Manager
	onChange func()

	mu       sync.Mutex
	ctx      context.Context
	id       string
	messages []domain.Message
	err      error
}

func NewStream(source MessageSource, subs *subscription.Manager, onChange func()) *Stream {
	return &Stream{source: source, subs: subs, onChange: onChange}
}

// Switch moves the stream to conversation id. The previous message
// subscription is cancelled before the new one is opened. An empty id stops
// the stream.
func (s *Stream) Switch(ctx context.Context, id string) {
	if id == "" {
		s.Stop()
		return
	}

	s.mu.Lock()
	tok := s.subs.Begin(subscription.KindMessages, id)
	s.ctx = ctx
	s.id = id
	s.messages = nil
	s.err = nil
	s.mu.Unlock()
	s.changed()

	unsubscribe := s.source.SubscribeMessages(ctx, id, func(list []domain.Message, err error) {
		s.apply(tok, list, err)
	})
	s.subs.Attach(tok, unsubscribe)
}

func (s *Stream) apply(tok subscription.Token, list []domain.Message, err error) {
	s.mu.Lock()
	if !s.subs.IsCurrent(tok) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.err = err
		l := logger.Operation(s.ctx, "stream", "subscribe_messages")
		s.mu.Unlock()
		l.Warn().Err(err).Str("conversation_id", tok.Key).Msg("message subscription failed")
		s.changed()
		return
	}
	s.messages = list
	s.err = nil
	s.mu.Unlock()
	s.changed()
}

// ConversationID returns the conversation the stream follows, or "".
func (s *Stream) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Messages returns a copy of the current messages, oldest first.
func (s *Stream) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop cancels the subscription and clears the messages.
func (s *Stream) Stop() {
	s.mu.Lock()
	s.subs.Cancel(subscription.KindMessages)
	s.id = ""
	s.messages = nil
	s.err = nil
	s.mu.Unlock()
	s.changed()
}

func (s *Stream) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
