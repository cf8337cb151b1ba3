package realtime

import "sync"

// Registry tracks which delivery channels are open for each user. A user
// may hold several channels at once (multiple devices or tabs); all of
// them receive the same fan-out. Purely in-memory: a restart empties it
// and clients re-register on reconnect.
type Registry struct {
	mu       sync.RWMutex
	channels map[int64]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[int64]map[*Client]struct{}),
	}
}

func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.channels[client.userID] = set
	}
	set[client] = struct{}{}
}

// Unregister removes the client and closes its send channel. Safe to
// call more than once for the same client; only the first call closes.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; !exists {
		return
	}
	delete(set, client)
	client.closeSend()
	if len(set) == 0 {
		delete(r.channels, client.userID)
	}
}

// ChannelsFor returns a snapshot of the user's active channels. Delivery
// happens against the snapshot, never under the registry lock.
func (r *Registry) ChannelsFor(userID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[userID]
	if !ok {
		return nil
	}

	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	return clients
}
