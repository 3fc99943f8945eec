package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is the durable mapping from session id to session state. All
// operations are safe for concurrent use from independent connections.
//
// The store gives no transactional guarantee across operations; the protocol
// relies on its own ordering (state check before handshake, state update
// before room join) to keep at most one controller per session.
type Store interface {
	// CreateSession allocates a fresh session in StateWaitingForController
	// and returns its id. An id collision with an existing session is
	// reported as a CreateError with IDInUse set, never overwritten.
	CreateSession(ctx context.Context) (uuid.UUID, error)

	// DeleteSession removes the session. Deleting an absent session is not
	// an error.
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// SessionState returns the state of the session, or nil if no session
	// with that id exists.
	SessionState(ctx context.Context, id uuid.UUID) (*State, error)

	// ExistsSession reports whether a session with the id exists.
	ExistsSession(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdateSessionState sets the state of an existing session. Updating an
	// unknown id fails with an UpdateError with Unknown set; it never
	// creates the session implicitly.
	UpdateSessionState(ctx context.Context, id uuid.UUID, state State) error
}

// CreateError reports a failed session creation
type CreateError struct {
	// IDInUse is set when the freshly generated id collided with an
	// existing session
	IDInUse bool
	ID      uuid.UUID
	Err     error
}

func (e *CreateError) Error() string {
	if e.IDInUse {
		return fmt.Sprintf("attempted to create session with already existing id %s", e.ID)
	}
	return fmt.Sprintf("failed to create session: %v", e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// DeleteError reports a failed session deletion
type DeleteError struct {
	ID  uuid.UUID
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete session %s: %v", e.ID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// GetStateError reports a failed session state read, including a stored
// value that does not parse back into a valid state
type GetStateError struct {
	ID  uuid.UUID
	Err error
}

func (e *GetStateError) Error() string {
	return fmt.Sprintf("failed to get state of session %s: %v", e.ID, e.Err)
}

func (e *GetStateError) Unwrap() error { return e.Err }

// ExistsError reports a failed session existence check
type ExistsError struct {
	ID  uuid.UUID
	Err error
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("failed to check if session %s exists: %v", e.ID, e.Err)
}

func (e *ExistsError) Unwrap() error { return e.Err }

// UpdateError reports a failed session state update
type UpdateError struct {
	// Unknown is set when the session id is not present in the store
	Unknown bool
	ID      uuid.UUID
	Err     error
}

func (e *UpdateError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("session %s does not exist", e.ID)
	}
	return fmt.Sprintf("failed to update session %s: %v", e.ID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
