package handlers

import (
	"testing"
	"time"

	"github.com/DERELya/InstaKing/internal/models"
)

func TestConversationTitlePrefersExplicitName(t *testing.T) {
	name := "weekend plans"
	peer := "bob"
	summary := &models.ConversationSummary{
		Conversation: models.Conversation{ID: 3, Kind: models.ConversationGroup, Name: &name},
		PeerUsername: &peer,
	}

	if got := conversationTitle(summary); got != "weekend plans" {
		t.Fatalf("expected explicit name, got %q", got)
	}
}

func TestConversationTitleUsesPeerForDirect(t *testing.T) {
	peer := "bob"
	summary := &models.ConversationSummary{
		Conversation: models.Conversation{ID: 3, Kind: models.ConversationDirect},
		PeerUsername: &peer,
	}

	if got := conversationTitle(summary); got != "bob" {
		t.Fatalf("expected peer username, got %q", got)
	}
}

func TestConversationTitleFallsBackToID(t *testing.T) {
	summary := &models.ConversationSummary{
		Conversation: models.Conversation{ID: 3, Kind: models.ConversationDirect},
	}

	if got := conversationTitle(summary); got != "Conversation #3" {
		t.Fatalf("unexpected fallback title: %q", got)
	}
}

func TestToMessageResponse(t *testing.T) {
	message := &models.ChatMessage{
		ID:             5,
		ConversationID: 11,
		SenderID:       7,
		Content:        "hi",
		Status:         models.MessageRead,
		CreatedAt:      time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	got := toMessageResponse(message)
	if got.ID != 5 || got.ConversationID != 11 || got.SenderID != 7 {
		t.Fatalf("unexpected identifiers: %+v", got)
	}
	if got.Status != "READ" {
		t.Fatalf("expected READ status, got %q", got.Status)
	}
	if got.CreatedAt != "2026-03-01T09:30:00Z" {
		t.Fatalf("expected RFC3339 UTC timestamp, got %q", got.CreatedAt)
	}
}

func TestToConversationResponseCarriesLastMessage(t *testing.T) {
	peer := "bob"
	summary := &models.ConversationSummary{
		Conversation: models.Conversation{
			ID:             17,
			Kind:           models.ConversationDirect,
			ParticipantIDs: []int64{1, 2},
			LastMessageAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		PeerUsername: &peer,
		LastMessage: &models.ChatMessage{
			ID:             3,
			ConversationID: 17,
			SenderID:       2,
			Content:        "See you tomorrow",
			Status:         models.MessageSent,
			CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		UnreadCount: 2,
	}

	got := toConversationResponse(summary)
	if got.Title != "bob" || got.UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.LastMessage == nil || got.LastMessage.Content != "See you tomorrow" {
		t.Fatalf("expected last message to be mapped, got %+v", got.LastMessage)
	}
}

func TestToNotificationResponse(t *testing.T) {
	notification := &models.Notification{
		ID:          8,
		RecipientID: 1,
		SenderID:    2,
		Type:        models.NotificationFavorite,
		Content:     "added your post to favorites",
		IsRead:      false,
		CreatedAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	got := toNotificationResponse(notification)
	if got.ID != 8 || got.SenderID != 2 || got.Type != "FAVORITE" || got.IsRead {
		t.Fatalf("unexpected response: %+v", got)
	}
}
