package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for tests and single-node
// deployments. It honors the same contract as the Redis adapter, including
// per-entry expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration

	// now is swappable so expiry can be tested without sleeping
	now func() time.Time
}

type memoryEntry struct {
	state     State
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates a memory store. A zero ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// CreateSession implements Store
func (m *MemoryStore) CreateSession(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live(id); ok {
		return uuid.Nil, &CreateError{IDInUse: true, ID: id}
	}
	m.entries[id] = memoryEntry{
		state:     StateWaitingForController,
		expiresAt: m.deadline(),
	}
	return id, nil
}

// DeleteSession implements Store
func (m *MemoryStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// SessionState implements Store
func (m *MemoryStore) SessionState(ctx context.Context, id uuid.UUID) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.live(id)
	if !ok {
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

// ExistsSession implements Store
func (m *MemoryStore) ExistsSession(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.live(id)
	return ok, nil
}

// UpdateSessionState implements Store
func (m *MemoryStore) UpdateSessionState(ctx context.Context, id uuid.UUID, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live(id); !ok {
		return &UpdateError{Unknown: true, ID: id}
	}
	m.entries[id] = memoryEntry{state: state, expiresAt: m.deadline()}
	return nil
}

// live returns the entry for id, dropping it if it has expired. Callers must
// hold the mutex.
func (m *MemoryStore) live(id uuid.UUID) (memoryEntry, bool) {
	entry, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryStore) deadline() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}
