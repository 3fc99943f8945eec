package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/codefionn/pairhub/internal/logger"
	"github.com/codefionn/pairhub/internal/relay"
	"github.com/codefionn/pairhub/internal/socket"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// ErrSendBufferFull is returned when a client's outbound buffer cannot
// accept another message.
var ErrSendBufferFull = errors.New("client send buffer full")

// Client is one WebSocket connection. It implements socket.ClientSocket for
// the relay handlers: room membership, emits, and the connection's single
// session id slot.
type Client struct {
	ID string

	hub    *Hub
	conn   *websocket.Conn
	router *relay.Router
	send   chan *Envelope

	// Role assigned by the router from the connection-time credentials.
	// Zero until authentication completes.
	role relay.Role

	// The one connection-local session id slot
	mu        sync.Mutex
	sessionID *uuid.UUID

	closeOnce sync.Once
}

var _ socket.ClientSocket = (*Client)(nil)

// NewClient creates a client for an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, router *relay.Router) *Client {
	return &Client{
		ID:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		router: router,
		send:   make(chan *Envelope, 64),
	}
}

// Join implements socket.ClientSocket
func (c *Client) Join(room string) error {
	c.hub.JoinRoom(room, c)
	return nil
}

// Leave implements socket.ClientSocket
func (c *Client) Leave(room string) error {
	c.hub.LeaveRoom(room, c)
	return nil
}

// EmitToRoom implements socket.ClientSocket. The calling connection does not
// receive its own broadcast.
func (c *Client) EmitToRoom(room, event string, payload any) error {
	return c.hub.BroadcastToRoom(room, event, payload, c)
}

// Emit implements socket.ClientSocket
func (c *Client) Emit(event string, payload any) error {
	env, err := newEnvelope(event, "", payload)
	if err != nil {
		return err
	}
	return c.enqueue(env)
}

// closeSentinel tells the write pump to close the connection after flushing
// everything queued before it, so a final error frame reaches the peer.
var closeSentinel = &Envelope{}

// Disconnect implements socket.ClientSocket. Frames already queued are
// flushed before the connection closes.
func (c *Client) Disconnect() {
	if err := c.enqueue(closeSentinel); err != nil {
		c.Close()
	}
}

// StoredSession implements socket.ClientSocket
func (c *Client) StoredSession() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == nil {
		return uuid.Nil, false
	}
	return *c.sessionID, true
}

// StoreSession implements socket.ClientSocket
func (c *Client) StoreSession(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = &id
}

// RemoveSession implements socket.ClientSocket
func (c *Client) RemoveSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = nil
}

// Close shuts the connection down once
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

func (c *Client) enqueue(env *Envelope) error {
	defer func() {
		// send channel is closed by the hub on unregister; emitting to a
		// connection that is tearing down is a send failure, not a crash
		_ = recover()
	}()
	select {
	case c.send <- env:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// ReadPump reads frames from the connection and dispatches them to the
// relay handlers. It runs in the connection's goroutine; handlers execute
// sequentially per connection. On exit the role's disconnect handler runs.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Close()
		c.hub.Unregister(c)
		c.dispatchDisconnect(ctx)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error for client %s: %v", c.ID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Warn("Client %s sent an unparseable frame: %v", c.ID, err)
			continue
		}

		c.handleMessage(ctx, &env)
	}
}

// WritePump writes outbound frames and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok || env == closeSentinel {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(env)
			if err != nil {
				logger.Error("Failed to marshal outbound frame: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("Failed to write to client %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Authenticate resolves the connection-time credentials. Returns false when
// the router rejected and disconnected the client.
func (c *Client) Authenticate(rawAuth []byte) bool {
	role, ok := c.router.Resolve(c, rawAuth)
	if !ok {
		return false
	}
	c.role = role
	logger.Debug("Client %s authenticated as %s", c.ID, role)
	return true
}

func (c *Client) handleMessage(ctx context.Context, env *Envelope) {
	// Acks answer server-initiated exchanges (the permission handshake) and
	// are correlated by ack id alone.
	if env.Type == EventAck {
		c.hub.ResolveAck(env.AckID, env.Data)
		return
	}

	if c.role == "" {
		if env.Type == EventAuth {
			c.Authenticate(env.Data)
			return
		}
		// no protocol traffic before role resolution
		logger.Warn("Client %s sent %s before authenticating", c.ID, env.Type)
		if err := c.Emit(relay.EventConnectError, relay.ConnectErrorResponse{Reason: relay.ReasonUnauthorized}); err != nil {
			logger.Error("Failed to emit connect error: %v", err)
		}
		c.Disconnect()
		return
	}

	switch c.role {
	case relay.RoleOwner:
		c.handleOwnerMessage(ctx, env)
	case relay.RoleController:
		c.handleControllerMessage(ctx, env)
	}
}

func (c *Client) handleOwnerMessage(ctx context.Context, env *Envelope) {
	switch env.Type {
	case relay.EventStartSession:
		resp := c.router.Owner.StartSession(ctx, c)
		c.sendAck(env.AckID, resp)
	default:
		logger.Warn("Owner client %s sent unknown event %s", c.ID, env.Type)
	}
}

func (c *Client) handleControllerMessage(ctx context.Context, env *Envelope) {
	switch env.Type {
	case relay.EventJoinSession:
		var req relay.JoinSessionRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			logger.Warn("Client %s sent malformed join_session payload: %v", c.ID, err)
			return
		}
		resp := c.router.Controller.JoinSession(ctx, c, req)
		c.sendAck(env.AckID, resp)

	case relay.EventVibrate:
		var cmd relay.VibrateCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			logger.Warn("Client %s sent malformed vibrate payload: %v", c.ID, err)
			return
		}
		c.router.Controller.Vibrate(c, cmd)

	default:
		logger.Warn("Controller client %s sent unknown event %s", c.ID, env.Type)
	}
}

func (c *Client) sendAck(ackID string, payload any) {
	env, err := newEnvelope(EventAck, ackID, payload)
	if err != nil {
		logger.Error("Failed to encode acknowledgment for client %s: %v", c.ID, err)
		return
	}
	if err := c.enqueue(env); err != nil {
		logger.Error("Failed to send acknowledgment to client %s: %v", c.ID, err)
	}
}

func (c *Client) dispatchDisconnect(ctx context.Context) {
	switch c.role {
	case relay.RoleOwner:
		c.router.Owner.Disconnect(ctx, c)
	case relay.RoleController:
		c.router.Controller.Disconnect(ctx, c)
	}
}
