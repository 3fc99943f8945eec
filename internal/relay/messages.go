package relay

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Event name constants
const (
	// Connection lifecycle
	EventConnectError = "connect_error"

	// Owner protocol
	EventStartSession    = "start_session"
	EventSessionFinished = "session_finished"

	// Controller protocol
	EventJoinSession            = "join_session"
	EventJoinRequest            = "join_request"
	EventControllerJoined       = "controller_joined"
	EventControllerDisconnected = "controller_disconnected"
	EventVibrate                = "vibrate"
	EventError                  = "error"
)

// Response type tags
const (
	responseOK    = "ok"
	responseError = "error"
)

// Role identifies which side of a session a connection speaks for
type Role string

const (
	RoleOwner      Role = "owner"
	RoleController Role = "controller"
)

// Auth is the connection-time credential payload
type Auth struct {
	Role Role `json:"role"`
}

// ParseAuth validates the connection-time credential payload and returns the
// selected role. Malformed payloads and unknown roles are rejected.
func ParseAuth(raw []byte) (Role, error) {
	var auth Auth
	if err := json.Unmarshal(raw, &auth); err != nil {
		return "", fmt.Errorf("invalid auth payload: %w", err)
	}
	switch auth.Role {
	case RoleOwner, RoleController:
		return auth.Role, nil
	default:
		return "", fmt.Errorf("invalid auth payload: unknown role %q", auth.Role)
	}
}

// ConnectErrorResponse is emitted before forced disconnect when the
// connection-time credentials do not resolve to a role
type ConnectErrorResponse struct {
	Reason string `json:"reason"`
}

// ReasonUnauthorized is the only connect rejection reason
const ReasonUnauthorized = "unauthorized"

// ErrorKind is the typed failure reported to a caller in an error response
type ErrorKind string

const (
	ErrAlreadyInASession  ErrorKind = "already_in_a_session"
	ErrServerError        ErrorKind = "server_error"
	ErrSessionNotFound    ErrorKind = "session_not_found"
	ErrSessionFull        ErrorKind = "session_full"
	ErrHubResponseTimeout ErrorKind = "hub_response_timeout"
	ErrRejected           ErrorKind = "rejected"
)

// StartSessionResponse acknowledges a start_session command
type StartSessionResponse struct {
	Type      string     `json:"type"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Kind      ErrorKind  `json:"kind,omitempty"`
}

// StartSessionOK builds the success response carrying the new session id
func StartSessionOK(id uuid.UUID) StartSessionResponse {
	return StartSessionResponse{Type: responseOK, SessionID: &id}
}

// StartSessionErr builds the error response with the given kind
func StartSessionErr(kind ErrorKind) StartSessionResponse {
	return StartSessionResponse{Type: responseError, Kind: kind}
}

// JoinSessionRequest asks to join an existing session. Message is an opaque
// introduction shown to the owner with the permission request.
type JoinSessionRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

// JoinSessionResponse acknowledges a join_session command
type JoinSessionResponse struct {
	Type string    `json:"type"`
	Kind ErrorKind `json:"kind,omitempty"`
}

// JoinSessionOK builds the success response
func JoinSessionOK() JoinSessionResponse {
	return JoinSessionResponse{Type: responseOK}
}

// JoinSessionErr builds the error response with the given kind
func JoinSessionErr(kind ErrorKind) JoinSessionResponse {
	return JoinSessionResponse{Type: responseError, Kind: kind}
}

// PermissionRequest is broadcast to the session room to ask the owner
// whether the controller may join
type PermissionRequest struct {
	Message string `json:"message"`
}

// PermissionDecision is the owner's answer to a permission request
type PermissionDecision int

const (
	DecisionAccept PermissionDecision = iota
	DecisionReject
)

// ParsePermissionAck decodes the owner's acknowledgment payload,
// {"type":"accept"} or {"type":"reject"}
func ParsePermissionAck(raw json.RawMessage) (PermissionDecision, error) {
	var ack struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		return 0, fmt.Errorf("invalid permission acknowledgment: %w", err)
	}
	switch ack.Type {
	case "accept":
		return DecisionAccept, nil
	case "reject":
		return DecisionReject, nil
	default:
		return 0, fmt.Errorf("invalid permission acknowledgment: unknown type %q", ack.Type)
	}
}

// VibrateCmd is the command payload relayed verbatim from controller to room
type VibrateCmd struct {
	Value float64 `json:"value"`
}

// Controller error kinds emitted to the caller on misuse or relay failure
const (
	ControllerErrPermissions    = "permissions"
	ControllerErrVibrateCmdSend = "vibrate_cmd_send_error"
)

// ControllerError is emitted to the controller itself on the error event
type ControllerError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
