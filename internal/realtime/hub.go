package realtime

import (
	"encoding/json"
	"log"
)

// Per-user push topics.
const (
	TopicMessageReceived     = "message-received"
	TopicMessageDeleted      = "message-deleted"
	TopicReadReceipt         = "read-receipt"
	TopicTyping              = "typing"
	TopicNotificationCreated = "notification-created"
	TopicConversationCreated = "conversation-created"
	topicError               = "error"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub pushes payloads to every active channel of a user. Delivery is
// best effort and at most once: a user with no channels is a no-op, a
// channel that cannot accept the payload is dropped and unregistered.
// Send never blocks and never reports failure to the caller; the durable
// write has already happened by the time it runs.
type Hub struct {
	registry *Registry
}

func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

func (h *Hub) Send(userID int64, topic string, payload any) {
	clients := h.registry.ChannelsFor(userID)
	if len(clients) == 0 {
		return
	}

	encoded, err := json.Marshal(envelope{Type: topic, Data: payload})
	if err != nil {
		log.Printf("realtime hub encode %s: %v", topic, err)
		return
	}

	for _, client := range clients {
		if !client.trySend(encoded) {
			h.registry.Unregister(client)
		}
	}
}
