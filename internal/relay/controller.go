package relay

import (
	"context"
	"time"

	"github.com/codefionn/pairhub/internal/logger"
	"github.com/codefionn/pairhub/internal/session"
	"github.com/codefionn/pairhub/internal/socket"
)

// ControllerActor handles the operator-side protocol: the permission
// handshake, command relay, and teardown.
type ControllerActor struct {
	Sessions session.Store
	Global   socket.GlobalSocket

	// JoinRequestTimeout bounds how long the owner has to answer a
	// permission request
	JoinRequestTimeout time.Duration
}

// JoinSession runs the permission handshake for a controller asking to join
// an existing session.
//
// On acceptance the session state is updated before the room join, so a
// concurrent second join observes StateInProgress and is turned away with
// session_full instead of racing into the same room. Each step failure
// short-circuits the remaining steps.
func (a *ControllerActor) JoinSession(ctx context.Context, sock socket.ClientSocket, req JoinSessionRequest) JoinSessionResponse {
	logger.Debug("Received join_session command")

	sessionID := req.SessionID

	if _, ok := sock.StoredSession(); ok {
		return JoinSessionErr(ErrAlreadyInASession)
	}

	state, err := a.Sessions.SessionState(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to check session state: %v", err)
		return JoinSessionErr(ErrServerError)
	}
	if state == nil {
		return JoinSessionErr(ErrSessionNotFound)
	}
	if *state == session.StateInProgress {
		return JoinSessionErr(ErrSessionFull)
	}

	ack, err := a.Global.EmitToRoomWithAck(ctx, sessionID.String(), EventJoinRequest,
		PermissionRequest{Message: req.Message}, a.JoinRequestTimeout)
	if err != nil {
		logger.Error("Failed to ask owner if controller can join the session: %v", err)
		return JoinSessionErr(ErrHubResponseTimeout)
	}

	decision, err := ParsePermissionAck(ack)
	if err != nil {
		logger.Error("Owner sent a malformed permission acknowledgment: %v", err)
		return JoinSessionErr(ErrHubResponseTimeout)
	}
	if decision == DecisionReject {
		return JoinSessionErr(ErrRejected)
	}

	if err := a.Sessions.UpdateSessionState(ctx, sessionID, session.StateInProgress); err != nil {
		logger.Error("Failed to update session state: %v", err)
		return JoinSessionErr(ErrServerError)
	}

	if err := sock.Join(sessionID.String()); err != nil {
		logger.Error("Controller failed to join session room: %v", err)
		return JoinSessionErr(ErrServerError)
	}

	if err := sock.EmitToRoom(sessionID.String(), EventControllerJoined, nil); err != nil {
		logger.Error("Controller failed to send join confirmation to owner: %v", err)
		return JoinSessionErr(ErrServerError)
	}

	sock.StoreSession(sessionID)
	return JoinSessionOK()
}

// Vibrate relays a command payload verbatim to the session room. A
// controller that is not paired gets a permissions error and is
// disconnected; relay failures keep the connection alive since transient
// transport conditions are expected to self-heal.
func (a *ControllerActor) Vibrate(sock socket.ClientSocket, cmd VibrateCmd) {
	logger.Debug("Received vibrate command")

	sessionID, ok := sock.StoredSession()
	if !ok {
		logger.Warn("Client sent vibrate command without being in a session")
		if err := sock.Emit(EventError, ControllerError{
			Kind:    ControllerErrPermissions,
			Message: "Can't send a vibrate command if not in a session",
		}); err != nil {
			logger.Error("Failed to emit permissions error: %v", err)
		}
		sock.Disconnect()
		return
	}

	if err := sock.EmitToRoom(sessionID.String(), EventVibrate, cmd); err != nil {
		logger.Error("Failed to emit vibrate command: %v", err)
		if err := sock.Emit(EventError, ControllerError{
			Kind:    ControllerErrVibrateCmdSend,
			Message: "Failed to send vibration command",
		}); err != nil {
			logger.Error("Failed to emit vibrate send error: %v", err)
		}
	}
}

// Disconnect reverts the session to waiting when the controller drops. All
// cleanup failures are logged and swallowed; a stale state is recoverable by
// a later successful update or by expiry.
func (a *ControllerActor) Disconnect(ctx context.Context, sock socket.ClientSocket) {
	logger.Debug("Controller disconnected")

	sessionID, ok := sock.StoredSession()
	if !ok {
		return
	}

	if err := sock.EmitToRoom(sessionID.String(), EventControllerDisconnected, nil); err != nil {
		logger.Error("Failed to send controller_disconnected event: %v", err)
	}

	if err := a.Sessions.UpdateSessionState(ctx, sessionID, session.StateWaitingForController); err != nil {
		logger.Error("Failed to update session state: %v", err)
	}
}
