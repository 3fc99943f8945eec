package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	exists, err := store.ExistsSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	state, err := store.SessionState(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StateWaitingForController, *state)
}

func TestMemoryStoreCreateSessionAllocatesDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	first, err := store.CreateSession(ctx)
	require.NoError(t, err)
	second, err := store.CreateSession(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestMemoryStoreDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, store.DeleteSession(ctx, id))

	exists, err := store.ExistsSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	state, err := store.SessionState(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, state)

	// deleting an absent session is not an error
	require.NoError(t, store.DeleteSession(ctx, id))
}

func TestMemoryStoreSessionStateMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	state, err := store.SessionState(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemoryStoreUpdateSessionState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, store.UpdateSessionState(ctx, id, StateInProgress))

	state, err := store.SessionState(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StateInProgress, *state)

	require.NoError(t, store.UpdateSessionState(ctx, id, StateWaitingForController))

	state, err = store.SessionState(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StateWaitingForController, *state)
}

func TestMemoryStoreUpdateUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	id := uuid.New()
	err := store.UpdateSessionState(ctx, id, StateInProgress)
	require.Error(t, err)

	var updateErr *UpdateError
	require.True(t, errors.As(err, &updateErr))
	assert.True(t, updateErr.Unknown)
	assert.Equal(t, id, updateErr.ID)

	// the failed update must not create the session
	exists, err := store.ExistsSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	current := time.Unix(1000, 0)
	store.now = func() time.Time { return current }

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	exists, err := store.ExistsSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	current = current.Add(2 * time.Minute)

	exists, err = store.ExistsSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	state, err := store.SessionState(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, state)

	err = store.UpdateSessionState(ctx, id, StateInProgress)
	var updateErr *UpdateError
	require.True(t, errors.As(err, &updateErr))
	assert.True(t, updateErr.Unknown)
}

func TestMemoryStoreUpdateRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	current := time.Unix(1000, 0)
	store.now = func() time.Time { return current }

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	current = current.Add(45 * time.Second)
	require.NoError(t, store.UpdateSessionState(ctx, id, StateInProgress))

	// past the original deadline but within the refreshed one
	current = current.Add(45 * time.Second)

	exists, err := store.ExistsSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}
