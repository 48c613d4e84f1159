package service

import (
	"context"
	"strings"

	"github.com/sixchat/sixchat-backend/internal/chats/domain"
	"github.com/sixchat/sixchat-backend/internal/logger"
)

// MessageWriter stores messages and refreshes the conversation preview.
type MessageWriter interface {
	AppendMessage(ctx context.Context, conversationID string, m domain.Message) (string, error)
	TouchConversation(ctx context.Context, id, lastMessage string) error
}

type Composer struct {
	chats MessageWriter
}

func NewComposer(chats MessageWriter) *Composer {
	return &Composer{chats: chats}
}

// Send appends a message and then updates the conversation preview. Blank
// text is ignored and returns an empty id. The two writes are independent: if
// the second fails the message stays recorded while the preview and list
// order lag behind.
func (c *Composer) Send(ctx context.Context, conversationID, senderID, senderNumber, senderName, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if conversationID == "" {
		return "", domain.ErrNoActiveConversation
	}

	id, err := c.chats.AppendMessage(ctx, conversationID, domain.Message{
		Text:         text,
		SenderID:     senderID,
		SenderNumber: senderNumber,
		SenderName:   senderName,
	})
	if err != nil {
		l := logger.Operation(ctx, "composer", "append_message")
		l.Error().Err(err).Str("conversation_id", conversationID).Msg("send failed")
		return "", err
	}

	if err := c.chats.TouchConversation(ctx, conversationID, text); err != nil {
		l := logger.Operation(ctx, "composer", "touch_conversation")
		l.Error().Err(err).Str("conversation_id", conversationID).Str("message_id", id).Msg("message stored but preview not updated")
		return id, err
	}
	return id, nil
}
