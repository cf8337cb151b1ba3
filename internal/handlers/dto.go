package handlers

import (
	"fmt"

	"github.com/DERELya/InstaKing/internal/models"
	"github.com/DERELya/InstaKing/internal/services"
)

// Wire shapes and the entity-to-wire mapping. One pure function per
// entity pair; no reflection.

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type MessageResponse struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	Content        string `json:"content"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

type ConversationResponse struct {
	ID             int64            `json:"id"`
	Kind           string           `json:"kind"`
	Title          string           `json:"title"`
	ParticipantIDs []int64          `json:"participant_ids"`
	LastMessageAt  string           `json:"last_message_at"`
	UnreadCount    int              `json:"unread_count"`
	LastMessage    *MessageResponse `json:"last_message,omitempty"`
}

type NotificationResponse struct {
	ID        int64  `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func toMessageResponse(message *models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		Status:         string(message.Status),
		CreatedAt:      services.FormatChatTimestamp(message.CreatedAt),
	}
}

func toMessageResponses(messages []models.ChatMessage) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, toMessageResponse(&messages[i]))
	}
	return responses
}

func toConversationResponse(summary *models.ConversationSummary) ConversationResponse {
	response := ConversationResponse{
		ID:             summary.ID,
		Kind:           string(summary.Kind),
		Title:          conversationTitle(summary),
		ParticipantIDs: summary.ParticipantIDs,
		LastMessageAt:  services.FormatChatTimestamp(summary.LastMessageAt),
		UnreadCount:    summary.UnreadCount,
	}
	if summary.LastMessage != nil {
		lastMessage := toMessageResponse(summary.LastMessage)
		response.LastMessage = &lastMessage
	}
	return response
}

func toConversationResponses(summaries []models.ConversationSummary) []ConversationResponse {
	responses := make([]ConversationResponse, 0, len(summaries))
	for i := range summaries {
		responses = append(responses, toConversationResponse(&summaries[i]))
	}
	return responses
}

// conversationTitle picks what a conversation is called from the
// viewer's side: an explicit name wins, a direct chat shows the peer's
// username, anything else falls back to the id.
func conversationTitle(summary *models.ConversationSummary) string {
	if summary.Name != nil && *summary.Name != "" {
		return *summary.Name
	}
	if summary.PeerUsername != nil && *summary.PeerUsername != "" {
		return *summary.PeerUsername
	}
	return fmt.Sprintf("Conversation #%d", summary.ID)
}

func toNotificationResponse(notification *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		SenderID:  notification.SenderID,
		Type:      string(notification.Type),
		Content:   notification.Content,
		IsRead:    notification.IsRead,
		CreatedAt: services.FormatChatTimestamp(notification.CreatedAt),
	}
}

func toNotificationResponses(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}
	return responses
}
