package models

import "time"

type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

type MessageStatus string

const (
	// MessageSent is the initial status of every message. MessageRead is
	// terminal; a message never goes back to sent.
	MessageSent MessageStatus = "SENT"
	MessageRead MessageStatus = "READ"
)

type Conversation struct {
	ID             int64            `json:"id"`
	Kind           ConversationKind `json:"kind"`
	Name           *string          `json:"name,omitempty"`
	ParticipantIDs []int64          `json:"participant_ids"`
	LastMessageAt  time.Time        `json:"last_message_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

// HasParticipant reports whether userID belongs to the conversation's
// participant set.
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except userID, preserving
// order.
func (c *Conversation) OtherParticipants(userID int64) []int64 {
	others := make([]int64, 0, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}

type ChatMessage struct {
	ID             int64         `json:"id"`
	ConversationID int64         `json:"conversation_id"`
	SenderID       int64         `json:"sender_id"`
	Content        string        `json:"content"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	// PeerUsername is the other participant's username for direct
	// conversations; nil for group conversations.
	PeerUsername *string      `json:"-"`
	LastMessage  *ChatMessage `json:"last_message,omitempty"`
	UnreadCount  int          `json:"unread_count"`
}
