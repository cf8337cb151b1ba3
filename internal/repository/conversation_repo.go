package repository

import (
	"context"
	"time"

	"github.com/DERELya/InstaKing/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGetDirect resolves the single direct conversation for the pair
// (userA, userB), creating it when absent. The pair is normalized into
// (user_low, user_high), which carries a unique constraint, so two
// concurrent callers for the same pair always converge on one row. The
// returned flag is true when this call inserted the row.
func (r *ConversationRepository) CreateOrGetDirect(
	ctx context.Context,
	userA int64,
	userB int64,
) (*models.Conversation, bool, error) {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}

	query := `
		INSERT INTO conversations (kind, user_low, user_high)
		VALUES ('direct', $1, $2)
		ON CONFLICT (user_low, user_high)
		DO UPDATE SET user_low = conversations.user_low
		RETURNING id, kind, name, last_message_at, created_at, (xmax = 0)
	`

	var conversation models.Conversation
	var created bool
	err := r.db.QueryRow(ctx, query, low, high).Scan(
		&conversation.ID,
		&conversation.Kind,
		&conversation.Name,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
		&created,
	)
	if err != nil {
		return nil, false, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id)
		VALUES ($1, $2), ($1, $3)
		ON CONFLICT DO NOTHING
	`, conversation.ID, low, high)
	if err != nil {
		return nil, false, err
	}

	conversation.ParticipantIDs = []int64{low, high}
	return &conversation, created, nil
}

func (r *ConversationRepository) GetByID(
	ctx context.Context,
	conversationID int64,
) (*models.Conversation, error) {
	query := `
		SELECT
			c.id,
			c.kind,
			c.name,
			c.last_message_at,
			c.created_at,
			ARRAY(
				SELECT user_id
				FROM conversation_participants
				WHERE conversation_id = c.id
				ORDER BY user_id
			)
		FROM conversations c
		WHERE c.id = $1
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.Kind,
		&conversation.Name,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
		&conversation.ParticipantIDs,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) IsParticipant(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`

	var isParticipant bool
	if err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&isParticipant); err != nil {
		return false, err
	}
	return isParticipant, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.kind,
			c.name,
			c.last_message_at,
			c.created_at,
			ARRAY(
				SELECT user_id
				FROM conversation_participants
				WHERE conversation_id = c.id
				ORDER BY user_id
			),
			peer.username,
			lm.id,
			lm.sender_id,
			lm.content,
			lm.status,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		JOIN conversation_participants cp
			ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN LATERAL (
			SELECT u.username
			FROM conversation_participants op
			JOIN users u ON u.id = op.user_id
			WHERE op.conversation_id = c.id AND op.user_id <> $1
			ORDER BY op.user_id
			LIMIT 1
		) peer ON c.kind = 'direct'
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, status, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND status = 'SENT'
		) uc ON TRUE
		ORDER BY c.last_message_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var peerUsername *string
		var messageID *int64
		var messageSenderID *int64
		var messageContent *string
		var messageStatus *models.MessageStatus
		var messageCreatedAt *time.Time

		if err := rows.Scan(
			&summary.ID,
			&summary.Kind,
			&summary.Name,
			&summary.LastMessageAt,
			&summary.CreatedAt,
			&summary.ParticipantIDs,
			&peerUsername,
			&messageID,
			&messageSenderID,
			&messageContent,
			&messageStatus,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		summary.PeerUsername = peerUsername
		if messageID != nil {
			summary.LastMessage = &models.ChatMessage{
				ID:             *messageID,
				ConversationID: summary.ID,
				SenderID:       *messageSenderID,
				Content:        *messageContent,
				Status:         *messageStatus,
				CreatedAt:      *messageCreatedAt,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// Touch moves the conversation's ordering key. Called in the same
// transaction as the message insert so a message can never exist without
// the bump.
func (r *ConversationRepository) Touch(
	ctx context.Context,
	conversationID int64,
	at time.Time,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = $2
		WHERE id = $1
	`, conversationID, at)
	return err
}
