package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub is the realtime channel registry. Every authenticated connection joins
// two rooms: one keyed by its user id, one by its role. Membership lives only
// as long as the connection; nothing is persisted.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[uint]map[*Client]struct{}
	byRole  map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uint]map[*Client]struct{}),
		byRole:  make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
	if h.byRole[c.Role] == nil {
		h.byRole[c.Role] = make(map[*Client]struct{})
	}
	h.byRole[c.Role][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	if m := h.byRole[c.Role]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byRole, c.Role)
		}
	}
}

// envelope is the wire format for every server -> client event.
func envelope(event string, payload interface{}) []byte {
	data, _ := json.Marshal(map[string]interface{}{"event": event, "data": payload})
	return data
}

// EmitToUser delivers an event to every connection in the user's room.
// An empty room is a silent no-op: the recipient is simply offline.
func (h *Hub) EmitToUser(userID uint, event string, payload interface{}) {
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	h.deliver(clients, envelope(event, payload))
}

// EmitToRole delivers an event to every connection in the role's room.
func (h *Hub) EmitToRole(role string, event string, payload interface{}) {
	h.mu.RLock()
	m := h.byRole[role]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	h.deliver(clients, envelope(event, payload))
}

// BroadcastExceptUser delivers an event to every connection except the named
// user's own. Used for presence changes.
func (h *Hub) BroadcastExceptUser(userID uint, event string, payload interface{}) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.UserID != userID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	h.deliver(clients, envelope(event, payload))
}

func (h *Hub) deliver(clients []*Client, data []byte) {
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// IsUserConnected reports whether the user has at least one live connection.
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
