package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codefionn/pairhub/internal/session"
	"github.com/codefionn/pairhub/internal/socket"
	"github.com/google/uuid"
)

// fakeSocket is a deterministic ClientSocket double recording every call.
type fakeSocket struct {
	stored *uuid.UUID

	joined       []string
	left         []string
	roomEmits    []roomEmit
	emits        []directEmit
	disconnected bool

	joinErr       error
	emitToRoomErr error
	emitErr       error
}

type roomEmit struct {
	room    string
	event   string
	payload any
}

type directEmit struct {
	event   string
	payload any
}

var _ socket.ClientSocket = (*fakeSocket)(nil)

func (f *fakeSocket) Join(room string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joined = append(f.joined, room)
	return nil
}

func (f *fakeSocket) Leave(room string) error {
	f.left = append(f.left, room)
	return nil
}

func (f *fakeSocket) EmitToRoom(room, event string, payload any) error {
	if f.emitToRoomErr != nil {
		return f.emitToRoomErr
	}
	f.roomEmits = append(f.roomEmits, roomEmit{room: room, event: event, payload: payload})
	return nil
}

func (f *fakeSocket) Emit(event string, payload any) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emits = append(f.emits, directEmit{event: event, payload: payload})
	return nil
}

func (f *fakeSocket) Disconnect() { f.disconnected = true }

func (f *fakeSocket) StoredSession() (uuid.UUID, bool) {
	if f.stored == nil {
		return uuid.Nil, false
	}
	return *f.stored, true
}

func (f *fakeSocket) StoreSession(id uuid.UUID) { f.stored = &id }

func (f *fakeSocket) RemoveSession() { f.stored = nil }

// errStore wraps a real store, injecting failures per operation.
type errStore struct {
	session.Store

	createErr error
	deleteErr error
	stateErr  error
	updateErr error
}

func (s *errStore) CreateSession(ctx context.Context) (uuid.UUID, error) {
	if s.createErr != nil {
		return uuid.Nil, s.createErr
	}
	return s.Store.CreateSession(ctx)
}

func (s *errStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.DeleteSession(ctx, id)
}

func (s *errStore) SessionState(ctx context.Context, id uuid.UUID) (*session.State, error) {
	if s.stateErr != nil {
		return nil, s.stateErr
	}
	return s.Store.SessionState(ctx, id)
}

func (s *errStore) UpdateSessionState(ctx context.Context, id uuid.UUID, state session.State) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateSessionState(ctx, id, state)
}

// fakeGlobal is a GlobalSocket double that answers the permission handshake
// with a canned acknowledgment or error.
type fakeGlobal struct {
	ack json.RawMessage
	err error

	calls []ackCall
}

type ackCall struct {
	room    string
	event   string
	payload any
	timeout time.Duration
}

var _ socket.GlobalSocket = (*fakeGlobal)(nil)

func (f *fakeGlobal) EmitToRoomWithAck(ctx context.Context, room, event string, payload any, timeout time.Duration) (json.RawMessage, error) {
	f.calls = append(f.calls, ackCall{room: room, event: event, payload: payload, timeout: timeout})
	if f.err != nil {
		return nil, f.err
	}
	return f.ack, nil
}

// errTimeout stands in for the transport's ack timeout error.
type errTimeout struct{}

func (errTimeout) Error() string { return "acknowledgment timed out" }
