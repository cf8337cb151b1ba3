package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DERELya/InstaKing/internal/models"
	"github.com/DERELya/InstaKing/internal/realtime"
	"github.com/DERELya/InstaKing/internal/repository"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUserNotFound = errors.New("user not found")
)

// Dispatcher pushes a payload to every active channel of a user. Best
// effort: implementations never block and never fail the caller.
type Dispatcher interface {
	Send(userID int64, topic string, payload any)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type TypingEvent struct {
	ConversationID int64  `json:"conversation_id"`
	Username       string `json:"username"`
	IsTyping       bool   `json:"is_typing"`
}

type ReadReceiptEvent struct {
	ConversationID int64 `json:"conversation_id"`
	ReaderID       int64 `json:"reader_id"`
}

type MessageDeletedEvent struct {
	ConversationID int64 `json:"conversation_id"`
	MessageID      int64 `json:"message_id"`
}

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         userReader
	dispatcher       Dispatcher
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
	dispatcher Dispatcher,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		dispatcher:       dispatcher,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
) ([]models.ConversationSummary, error) {
	return s.conversationRepo.ListForParticipant(ctx, actorID)
}

// GetOrCreateDirectConversation resolves the one direct conversation
// between actor and recipient, creating it on first contact. Calling it
// twice, sequentially or concurrently, yields the same conversation; the
// normalized-pair unique constraint deduplicates racing creates.
func (s *ChatService) GetOrCreateDirectConversation(
	ctx context.Context,
	actorID int64,
	recipientID int64,
) (*models.Conversation, error) {
	if recipientID <= 0 || recipientID == actorID {
		return nil, ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	conversation, created, err := repository.NewConversationRepository(tx).
		CreateOrGetDirect(ctx, actorID, recipientID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if created {
		s.dispatcher.Send(recipientID, realtime.TopicConversationCreated, conversation)
	}

	return conversation, nil
}

// SendMessage appends a message for the authenticated sender and fans it
// out to every participant's live channels. Exactly one of
// conversationID and recipientID must be set; the recipient form creates
// the direct conversation on the fly. The append and the
// last_message_at bump commit in one transaction, the fan-out happens
// only after the commit.
func (s *ChatService) SendMessage(
	ctx context.Context,
	senderID int64,
	conversationID int64,
	recipientID int64,
	content string,
) (*models.ChatMessage, error) {
	if (conversationID > 0) == (recipientID > 0) {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	var conversation *models.Conversation
	var err error
	if conversationID > 0 {
		conversation, err = s.conversationRepo.GetByID(ctx, conversationID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	} else {
		conversation, err = s.GetOrCreateDirectConversation(ctx, senderID, recipientID)
		if err != nil {
			return nil, err
		}
	}

	if !conversation.HasParticipant(senderID) {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, conversation.ID, senderID, trimmed)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversation.ID, message.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for _, participantID := range conversation.ParticipantIDs {
		s.dispatcher.Send(participantID, realtime.TopicMessageReceived, message)
	}

	return message, nil
}

func (s *ChatService) GetHistory(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	if !conversation.HasParticipant(actorID) {
		return nil, 0, ErrForbidden
	}

	return s.messageRepo.ListByConversation(ctx, conversationID, limit, (page-1)*limit)
}

// MarkConversationRead bulk-transitions the unread messages addressed to
// the reader and tells the other participants. Re-invoking on an
// all-read conversation is a no-op, not an error.
func (s *ChatService) MarkConversationRead(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) error {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !conversation.HasParticipant(actorID) {
		return ErrForbidden
	}

	if err := s.messageRepo.MarkConversationRead(ctx, conversationID, actorID); err != nil {
		return err
	}

	receipt := ReadReceiptEvent{ConversationID: conversationID, ReaderID: actorID}
	for _, participantID := range conversation.OtherParticipants(actorID) {
		s.dispatcher.Send(participantID, realtime.TopicReadReceipt, receipt)
	}

	return nil
}

// NotifyTyping dispatches an ephemeral typing signal to every other
// participant. Nothing is persisted; an offline participant simply never
// sees it.
func (s *ChatService) NotifyTyping(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	isTyping bool,
) error {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !conversation.HasParticipant(actorID) {
		return ErrForbidden
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	event := TypingEvent{
		ConversationID: conversationID,
		Username:       actor.Username,
		IsTyping:       isTyping,
	}
	for _, participantID := range conversation.OtherParticipants(actorID) {
		s.dispatcher.Send(participantID, realtime.TopicTyping, event)
	}

	return nil
}

// DeleteMessage removes a message. Only the author may delete it.
func (s *ChatService) DeleteMessage(
	ctx context.Context,
	actorID int64,
	messageID int64,
) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if message.SenderID != actorID {
		return ErrForbidden
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	conversation, err := s.conversationRepo.GetByID(ctx, message.ConversationID)
	if err != nil {
		return nil
	}

	event := MessageDeletedEvent{
		ConversationID: message.ConversationID,
		MessageID:      messageID,
	}
	for _, participantID := range conversation.ParticipantIDs {
		s.dispatcher.Send(participantID, realtime.TopicMessageDeleted, event)
	}

	return nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
