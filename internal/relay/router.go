// Package relay implements the session-pairing protocol: role routing at
// connect time, the owner and controller actors, and the wire message types.
// The actors never talk to each other directly; all coordination happens
// through the shared room abstraction and the session store.
package relay

import (
	"github.com/codefionn/pairhub/internal/logger"
	"github.com/codefionn/pairhub/internal/socket"
)

// Router resolves connection-time credentials to a role and holds the actor
// for each side of the protocol.
type Router struct {
	Owner      *OwnerActor
	Controller *ControllerActor
}

// Resolve validates the raw auth payload. On failure it emits an
// unauthorized connect_error and force-disconnects the connection; no
// session-store or socket state is touched before role resolution.
func (r *Router) Resolve(sock socket.ClientSocket, rawAuth []byte) (Role, bool) {
	role, err := ParseAuth(rawAuth)
	if err != nil {
		logger.Warn("Client provided invalid auth data: %v", err)
		if emitErr := sock.Emit(EventConnectError, ConnectErrorResponse{Reason: ReasonUnauthorized}); emitErr != nil {
			logger.Error("Failed to emit connect error: %v", emitErr)
		}
		sock.Disconnect()
		return "", false
	}
	return role, true
}
