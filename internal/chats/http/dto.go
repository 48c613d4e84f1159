package http

import "github.com/sixchat/sixchat-backend/internal/chats/domain"

type startBody struct {
	Target string `json:"target"`
}

type selectBody struct {
	ConversationID string `json:"conversation_id"`
}

type sendBody struct {
	Text string `json:"text"`
}

type conversationsResponse struct {
	Conversations []conversationView `json:"conversations"`
	Active        string             `json:"active_conversation_id,omitempty"`
	Pending       *domain.Resolved   `json:"pending,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// conversationView is a conversation with the peer label resolved for the
// caller.
type conversationView struct {
	domain.Conversation
	PeerNumber string `json:"peer_number"`
}

type messagesResponse struct {
	ConversationID string           `json:"conversation_id,omitempty"`
	Messages       []domain.Message `json:"messages"`
	Error          string           `json:"error,omitempty"`
}
