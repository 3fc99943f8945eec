package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store adapter: one key per session, key is the
// id's string form, value is the state's string form, TTL applied on every
// write so abandoned sessions self-expire.
//
// Existence checks and writes are separate Redis commands, not an atomic
// check-and-set; callers tolerate the narrow race this implies.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl disables expiry.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

// CreateSession implements Store
func (r *RedisStore) CreateSession(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	key := id.String()

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return uuid.Nil, &CreateError{ID: id, Err: err}
	}
	if n > 0 {
		return uuid.Nil, &CreateError{IDInUse: true, ID: id}
	}

	if err := r.client.Set(ctx, key, StateWaitingForController.String(), r.ttl).Err(); err != nil {
		return uuid.Nil, &CreateError{ID: id, Err: err}
	}
	return id, nil
}

// DeleteSession implements Store
func (r *RedisStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, id.String()).Err(); err != nil {
		return &DeleteError{ID: id, Err: err}
	}
	return nil
}

// SessionState implements Store
func (r *RedisStore) SessionState(ctx context.Context, id uuid.UUID) (*State, error) {
	value, err := r.client.Get(ctx, id.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &GetStateError{ID: id, Err: err}
	}

	state, err := ParseState(value)
	if err != nil {
		// A stored value that does not parse is data corruption, not a
		// valid state.
		return nil, &GetStateError{ID: id, Err: err}
	}
	return &state, nil
}

// ExistsSession implements Store
func (r *RedisStore) ExistsSession(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.client.Exists(ctx, id.String()).Result()
	if err != nil {
		return false, &ExistsError{ID: id, Err: err}
	}
	return n > 0, nil
}

// UpdateSessionState implements Store
func (r *RedisStore) UpdateSessionState(ctx context.Context, id uuid.UUID, state State) error {
	key := id.String()

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return &UpdateError{ID: id, Err: err}
	}
	if n == 0 {
		return &UpdateError{Unknown: true, ID: id}
	}

	if err := r.client.Set(ctx, key, state.String(), r.ttl).Err(); err != nil {
		return &UpdateError{ID: id, Err: err}
	}
	return nil
}
