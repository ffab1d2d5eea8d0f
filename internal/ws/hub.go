package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"chat-server/pkg/chat"
)

// Hub owns the fanout state: registered connections, per-channel rooms and
// the identity index. All state is process-local; cross-process delivery is
// the Relay's job. Locks are held only for in-memory mutation, never across
// I/O. Implements chat.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client                  // connection ID -> client
	rooms   map[string]map[*Client]struct{}     // channel ID -> members
	users   map[string]map[*Client]struct{}     // user ID -> connections
	joined  map[*Client]map[string]struct{}     // client -> joined room IDs

	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
		users:   make(map[string]map[*Client]struct{}),
		joined:  make(map[*Client]map[string]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
	h.joined[c] = make(map[string]struct{})
}

// Unregister removes the connection from every room and index. Idempotent;
// a connection that was never registered is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)

	for roomID := range h.joined[c] {
		h.removeFromRoom(c, roomID)
	}
	delete(h.joined, c)

	if conns, ok := h.users[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
}

// JoinRoom subscribes the connection to a channel's events. Authorization is
// the dispatcher's responsibility; the hub only manages membership of the
// fanout group.
func (h *Hub) JoinRoom(c *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	if h.rooms[channelID] == nil {
		h.rooms[channelID] = make(map[*Client]struct{})
	}
	h.rooms[channelID][c] = struct{}{}
	h.joined[c][channelID] = struct{}{}
}

func (h *Hub) LeaveRoom(c *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(c, channelID)
	delete(h.joined[c], channelID)
}

func (h *Hub) removeFromRoom(c *Client, channelID string) {
	if members, ok := h.rooms[channelID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, channelID)
		}
	}
}

func (h *Hub) InRoom(connID, channelID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	_, ok = h.rooms[channelID][c]
	return ok
}

func (h *Hub) RoomSize(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channelID])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SendTo(connID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()

	if c != nil {
		h.deliver(c, data)
	}
}

func (h *Hub) SendToRoom(roomID, event string, payload any, exclude ...string) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if _, excluded := skip[c.id]; !excluded {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, data)
	}
}

func (h *Hub) SendToUser(userID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, data)
	}
}

func (h *Hub) SendToAll(event string, payload any, exclude ...string) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if _, excluded := skip[c.id]; !excluded {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, data)
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(chat.OutEnvelope{Event: event, Data: payload})
	if err != nil {
		h.log.Error("failed to encode event", "event", event, "error", err)
		return nil, false
	}
	return data, true
}

// deliver enqueues without blocking. A peer that cannot drain its buffer
// gets its transport closed; the normal disconnect path cleans up.
func (h *Hub) deliver(c *Client, data []byte) {
	if !c.enqueue(data) {
		h.log.Warn("dropping slow connection", "conn", c.id, "user", c.userID)
		go c.close()
	}
}
