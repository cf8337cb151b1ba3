package services

import (
	"context"

	"github.com/DERELya/InstaKing/internal/models"
	"github.com/DERELya/InstaKing/internal/realtime"
	"github.com/DERELya/InstaKing/internal/repository"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	dispatcher       Dispatcher
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	dispatcher Dispatcher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
	}
}

// Create persists a notification and pushes it live to the recipient.
// A self-notification is dropped without storing or dispatching
// anything; that is a defined no-op, not an error.
func (s *NotificationService) Create(
	ctx context.Context,
	recipientID int64,
	senderID int64,
	notificationType models.NotificationType,
	content string,
) error {
	if recipientID == senderID {
		return nil
	}
	if recipientID <= 0 || senderID <= 0 || !notificationType.Valid() {
		return ErrInvalidInput
	}

	notification := &models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notificationType,
		Content:     content,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	s.dispatcher.Send(recipientID, realtime.TopicNotificationCreated, notification)
	return nil
}

func (s *NotificationService) List(
	ctx context.Context,
	recipientID int64,
) ([]models.Notification, error) {
	return s.notificationRepo.ListByRecipient(ctx, recipientID)
}

// MarkRead is idempotent and tolerant: a missing or already-read id is
// a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID int64) error {
	return s.notificationRepo.MarkRead(ctx, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int64) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}
