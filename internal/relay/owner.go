package relay

import (
	"context"

	"github.com/codefionn/pairhub/internal/logger"
	"github.com/codefionn/pairhub/internal/session"
	"github.com/codefionn/pairhub/internal/socket"
)

// OwnerActor handles the device-side protocol: session creation and
// teardown. The owner anchors a session and answers permission requests
// relayed through the session room.
type OwnerActor struct {
	Sessions session.Store
}

// StartSession creates a new session for the calling connection and joins it
// to the session room. A connection that already holds a session id cannot
// start another one.
func (a *OwnerActor) StartSession(ctx context.Context, sock socket.ClientSocket) StartSessionResponse {
	logger.Debug("Received start_session command")

	if _, ok := sock.StoredSession(); ok {
		return StartSessionErr(ErrAlreadyInASession)
	}

	sessionID, err := a.Sessions.CreateSession(ctx)
	if err != nil {
		logger.Error("Failed to create session on session store: %v", err)
		return StartSessionErr(ErrServerError)
	}

	if err := sock.Join(sessionID.String()); err != nil {
		// No compensating delete: the session row stays behind and is
		// cleaned up by TTL expiry.
		logger.Error("Owner failed to join session room %s: %v", sessionID, err)
		return StartSessionErr(ErrServerError)
	}

	sock.StoreSession(sessionID)

	return StartSessionOK(sessionID)
}

// Disconnect tears the session down when the owner connection drops. All
// cleanup failures are logged and swallowed; a disconnect never fails.
func (a *OwnerActor) Disconnect(ctx context.Context, sock socket.ClientSocket) {
	sessionID, ok := sock.StoredSession()
	if !ok {
		return
	}

	if err := sock.EmitToRoom(sessionID.String(), EventSessionFinished, nil); err != nil {
		logger.Error("Failed to send session_finished event: %v", err)
	}

	sock.RemoveSession()

	if err := a.Sessions.DeleteSession(ctx, sessionID); err != nil {
		// The row may still be cleaned up later by expiry.
		logger.Error("Failed to delete session %s: %v", sessionID, err)
	}
}
