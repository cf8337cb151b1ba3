package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/DERELya/InstaKing/internal/models"
)

// chatCommands is the slice of the chat service the socket needs. The
// sender of every command is the connection's authenticated user; client
// payloads carry no sender field.
type chatCommands interface {
	SendMessage(ctx context.Context, senderID int64, conversationID int64, recipientID int64, content string) (*models.ChatMessage, error)
	MarkConversationRead(ctx context.Context, actorID int64, conversationID int64) error
	NotifyTyping(ctx context.Context, actorID int64, conversationID int64, isTyping bool) error
}

type Client struct {
	id       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	userID   int64
	username string

	// mu guards closed and every push on send; a push and a close can
	// race from different goroutines (fan-out vs disconnect), and a send
	// on a closed channel panics.
	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, username string) *Client {
	return &Client{
		id:       uuid.New(),
		hub:      hub,
		conn:     conn,
		userID:   userID,
		username: username,
		send:     make(chan []byte, 32),
	}
}

func (c *Client) UserID() int64 {
	return c.userID
}

// trySend pushes the payload without blocking. Returns false when the
// channel is full or already closed; the caller decides whether to drop
// the client.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
	RecipientID    int64  `json:"recipient_id"`
	Content        string `json:"content"`
	IsTyping       bool   `json:"is_typing"`
}

// ReadPump consumes frames from the socket until it closes. Business
// errors are reported back on the socket only; they never tear the
// connection down.
func (c *Client) ReadPump(service chatCommands) {
	defer func() {
		c.hub.registry.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.writeError("invalid payload")
			continue
		}

		ctx := context.Background()
		switch frame.Type {
		case "message":
			if _, err := service.SendMessage(ctx, c.userID, frame.ConversationID, frame.RecipientID, frame.Content); err != nil {
				c.writeError("failed to send message")
			}
		case "read":
			if err := service.MarkConversationRead(ctx, c.userID, frame.ConversationID); err != nil {
				c.writeError("failed to mark conversation read")
			}
		case "typing":
			if err := service.NotifyTyping(ctx, c.userID, frame.ConversationID, frame.IsTyping); err != nil {
				c.writeError("failed to notify typing")
			}
		default:
			c.writeError("unsupported frame type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) writeError(message string) {
	encoded, err := json.Marshal(envelope{Type: topicError, Data: message})
	if err != nil {
		log.Printf("realtime client %s encode error frame: %v", c.id, err)
		return
	}
	if !c.trySend(encoded) {
		c.hub.registry.Unregister(c)
	}
}
