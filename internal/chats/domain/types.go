package domain

import "time"

// Conversation is the chats/{id} document.
type Conversation struct {
	ID                 string    `json:"id"`
	Participants       []string  `json:"participants"`
	ParticipantNumbers []string  `json:"participant_numbers"`
	LastMessage        string    `json:"last_message"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PeerNumber returns the number of the participant that is not uid.
func (c Conversation) PeerNumber(uid string) string {
	for i, p := range c.Participants {
		if p != uid && i < len(c.ParticipantNumbers) {
			return c.ParticipantNumbers[i]
		}
	}
	return ""
}

type Message struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	SenderID     string    `json:"sender_id"`
	SenderNumber string    `json:"sender_number"`
	SenderName   string    `json:"sender_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Resolved is the outcome of starting a conversation. Number is the peer's
// six-digit ID, usable as a pending label until the live list catches up.
type Resolved struct {
	ConversationID string `json:"conversation_id"`
	Number         string `json:"number"`
}
