package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codefionn/pairhub/internal/logger"
	"github.com/google/uuid"
)

// ErrAckTimeout is returned when no acknowledgment arrives before the
// exchange's timeout elapses.
var ErrAckTimeout = errors.New("no acknowledgment received before timeout")

// Hub maintains the set of active clients, their room memberships, and the
// pending ack-with-timeout exchanges. Rooms are ephemeral broadcast groups
// keyed by session id; membership is connection-level and never persisted.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	// Pending ack-with-timeout exchanges, keyed by ack id. The first
	// acknowledgment wins; later ones are dropped.
	ackMu sync.Mutex
	acks  map[string]chan json.RawMessage

	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	quitOnce   sync.Once
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		acks:       make(map[string]chan json.RawMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	logger.Info("Relay hub started")
	defer logger.Info("Relay hub stopped")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Client registered: %s (total: %d)", client.ID, total)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-h.quit:
			return
		}
	}
}

// Stop terminates the hub's event loop
func (h *Hub) Stop() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// Register adds a client (called from the connection goroutine)
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client and drops it from every room
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
		h.removeClient(client)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for room, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(client.send)
	logger.Debug("Client unregistered: %s (total: %d)", client.ID, len(h.clients))
}

// JoinRoom adds a client to a broadcast room
func (h *Hub) JoinRoom(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
	logger.Debug("Client %s joined room %s (%d members)", client.ID, room, len(members))
}

// LeaveRoom removes a client from a broadcast room
func (h *Hub) LeaveRoom(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize reports the current number of members in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom sends an event to every member of a room, skipping except
// when non-nil. Members with a full send buffer are treated as dead and
// closed.
func (h *Hub) BroadcastToRoom(room, event string, payload any, except *Client) error {
	env, err := newEnvelope(event, "", payload)
	if err != nil {
		return fmt.Errorf("encode %s broadcast: %w", event, err)
	}
	h.broadcast(room, env, except)
	return nil
}

func (h *Hub) broadcast(room string, env *Envelope, except *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		if client == except {
			continue
		}
		select {
		case client.send <- env:
		default:
			logger.Warn("Send buffer full for client %s, closing connection", client.ID)
			go client.Close()
		}
	}
}

// EmitToRoomWithAck broadcasts an event to every member of a room and waits
// for the first acknowledgment, bounded by timeout. Used exclusively for the
// permission handshake; at most one respondent is expected per session room.
func (h *Hub) EmitToRoomWithAck(ctx context.Context, room, event string, payload any, timeout time.Duration) (json.RawMessage, error) {
	ackID := uuid.NewString()
	env, err := newEnvelope(event, ackID, payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", event, err)
	}

	reply := make(chan json.RawMessage, 1)
	h.ackMu.Lock()
	h.acks[ackID] = reply
	h.ackMu.Unlock()
	defer func() {
		h.ackMu.Lock()
		delete(h.acks, ackID)
		h.ackMu.Unlock()
	}()

	h.broadcast(room, env, nil)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case raw := <-reply:
		return raw, nil
	case <-timer.C:
		return nil, ErrAckTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ResolveAck delivers an acknowledgment payload to the exchange waiting on
// ackID. Late or unknown acknowledgments are dropped.
func (h *Hub) ResolveAck(ackID string, payload json.RawMessage) {
	h.ackMu.Lock()
	reply, ok := h.acks[ackID]
	if ok {
		delete(h.acks, ackID)
	}
	h.ackMu.Unlock()

	if !ok {
		logger.Debug("Dropping acknowledgment for unknown exchange %s", ackID)
		return
	}
	reply <- payload
}
