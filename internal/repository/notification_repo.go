package repository

import (
	"context"

	"github.com/DERELya/InstaKing/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(
	ctx context.Context,
	notification *models.Notification,
) error {
	query := `
		INSERT INTO notifications (recipient_id, sender_id, type, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		notification.RecipientID,
		notification.SenderID,
		notification.Type,
		notification.Content,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
}

func (r *NotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID int64,
) ([]models.Notification, error) {
	query := `
		SELECT id, recipient_id, sender_id, type, content, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.SenderID,
			&notification.Type,
			&notification.Content,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}

		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkRead is tolerant: a missing id affects zero rows and is not an
// error.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
		  AND is_read = FALSE
	`, notificationID)
	return err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE recipient_id = $1
		  AND is_read = FALSE
	`, recipientID)
	return err
}
