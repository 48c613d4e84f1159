package repository

import (
	"context"
	"fmt"

	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
)

const chatsCollection = "chats"

type Repo struct {
	store backend.DocumentStore
}

func New(store backend.DocumentStore) *Repo {
	return &Repo{store: store}
}

func chatPath(id string) string {
	return chatsCollection + "/" + id
}

func messagesPath(id string) string {
	return chatPath(id) + "/messages"
}

// UpsertConversation merges the participant fields and refreshes updatedAt.
// lastMessage is never touched here.
func (r *Repo) UpsertConversation(ctx context.Context, id string, participants, numbers []string) error {
	err := r.store.WriteMerge(ctx, chatPath(id), map[string]interface{}{
		"participants":       participants,
		"participantNumbers": numbers,
		"updatedAt":          backend.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("upsert conversation %s: %w", id, err)
	}
	return nil
}

// AppendMessage adds a message and returns its backend-assigned id.
func (r *Repo) AppendMessage(ctx context.Context, conversationID string, m domain.Message) (string, error) {
	id, err := r.store.AppendDocument(ctx, messagesPath(conversationID), map[string]interface{}{
		"text":         m.Text,
		"senderId":     m.SenderID,
		"senderNumber": m.SenderNumber,
		"senderName":   m.SenderName,
		"createdAt":    backend.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

// TouchConversation updates the list preview after a send.
func (r *Repo) TouchConversation(ctx context.Context, id, lastMessage string) error {
	err := r.store.WriteMerge(ctx, chatPath(id), map[string]interface{}{
		"lastMessage": lastMessage,
		"updatedAt":   backend.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("touch conversation %s: %w", id, err)
	}
	return nil
}

func (r *Repo) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	snap, err := r.store.GetDocument(ctx, chatPath(id))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, nil
	}
	c := toConversation(snap)
	return &c, nil
}

// SubscribeConversations streams the conversations uid takes part in, most
// recent first.
func (r *Repo) SubscribeConversations(ctx context.Context, uid string, fn func([]domain.Conversation, error)) backend.Unsubscribe {
	q := backend.Query{
		Collection: chatsCollection,
		Filters:    []backend.Filter{{Field: "participants", Op: backend.OpArrayContains, Value: uid}},
		OrderBy:    "updatedAt",
		Direction:  backend.Desc,
	}
	return r.store.SubscribeQuery(ctx, q, func(docs []*backend.Snapshot, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		out := make([]domain.Conversation, 0, len(docs))
		for _, d := range docs {
			out = append(out, toConversation(d))
		}
		fn(out, nil)
	})
}

// SubscribeMessages streams one conversation's messages in send order.
func (r *Repo) SubscribeMessages(ctx context.Context, conversationID string, fn func([]domain.Message, error)) backend.Unsubscribe {
	q := backend.Query{
		Collection: messagesPath(conversationID),
		OrderBy:    "createdAt",
		Direction:  backend.Asc,
	}
	return r.store.SubscribeQuery(ctx, q, func(docs []*backend.Snapshot, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		out := make([]domain.Message, 0, len(docs))
		for _, d := range docs {
			out = append(out, toMessage(d))
		}
		fn(out, nil)
	})
}

func toConversation(s *backend.Snapshot) domain.Conversation {
	return domain.Conversation{
		ID:                 s.ID,
		Participants:       s.Strings("participants"),
		ParticipantNumbers: s.Strings("participantNumbers"),
		LastMessage:        s.String("lastMessage"),
		UpdatedAt:          s.Time("updatedAt"),
	}
}

func toMessage(s *backend.Snapshot) domain.Message {
	return domain.Message{
		ID:           s.ID,
		Text:         s.String("text"),
		SenderID:     s.String("senderId"),
		SenderNumber: s.String("senderNumber"),
		SenderName:   s.String("senderName"),
		CreatedAt:    s.Time("createdAt"),
	}
}
