// Package socket declares the transport capabilities the relay protocol is
// written against. The production adapter in internal/server implements them
// over WebSocket; tests substitute deterministic doubles.
package socket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClientSocket is the per-connection capability surface.
//
// Each connection owns exactly one optional session id slot: the session the
// connection is attached to. The slot is cleared on disconnect or explicit
// removal and is never shared across connections.
type ClientSocket interface {
	// Join adds this connection to the broadcast room
	Join(room string) error

	// Leave removes this connection from the broadcast room
	Leave(room string) error

	// EmitToRoom broadcasts an event to every other member of the room.
	// The calling connection does not receive its own broadcast.
	EmitToRoom(room, event string, payload any) error

	// Emit sends an event to this connection only
	Emit(event string, payload any) error

	// Disconnect forcibly closes the connection
	Disconnect()

	// StoredSession returns the session id held by this connection, if any
	StoredSession() (uuid.UUID, bool)

	// StoreSession attaches a session id to this connection
	StoreSession(id uuid.UUID)

	// RemoveSession clears this connection's session id slot
	RemoveSession()
}

// GlobalSocket is the server-wide capability surface, used exclusively for
// the permission handshake.
type GlobalSocket interface {
	// EmitToRoomWithAck broadcasts an event to every member of the room and
	// waits for a single acknowledgment. It returns the raw payload of the
	// first acknowledgment received, or an error if none arrives before the
	// timeout elapses or the transport fails. Later acknowledgments for the
	// same exchange are dropped.
	EmitToRoomWithAck(ctx context.Context, room, event string, payload any, timeout time.Duration) (json.RawMessage, error)
}
