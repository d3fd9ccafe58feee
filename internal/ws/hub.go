package ws

import (
	"encoding/json"
	"sync"
)

// Hub manages active connections and conversation-scoped broadcast rooms.
// Rooms are an in-process structure; cross-process fan-out would sit behind
// an external relay, not here.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[int64]map[*Client]struct{}),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes a connection from the hub and from every room it
// joined.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
	for convID := range c.rooms {
		h.leaveLocked(convID, c)
	}
}

// Join admits the connection to the conversation's room. Membership checks
// happen before this call.
func (h *Hub) Join(conversationID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][c] = struct{}{}
	c.rooms[conversationID] = struct{}{}
}

// Leave removes the connection from the room. Leaving is always safe, so no
// membership re-check happens anywhere on this path.
func (h *Hub) Leave(conversationID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(conversationID, c)
}

func (h *Hub) leaveLocked(conversationID int64, c *Client) {
	if room, ok := h.rooms[conversationID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	delete(c.rooms, conversationID)
}

// RoomSize returns the number of connections currently in the room.
func (h *Hub) RoomSize(conversationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// BroadcastToRoom sends the payload to every connection in the conversation's
// room, excluding `except` when non-nil. Delivery is best-effort: clients
// with a full send buffer are skipped.
func (h *Hub) BroadcastToRoom(conversationID int64, except *Client, payload any) {
	frame, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[conversationID] {
		if c == except {
			continue
		}
		c.enqueue(frame)
	}
}
