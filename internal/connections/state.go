package connections

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowai-hub/flowai-hub/internal/cache"
	"github.com/flowai-hub/flowai-hub/internal/crypto"
)

// StateStore holds pending CSRF states between the connect-start redirect and
// the provider callback. States are stored hashed and consumed exactly once.
// Redis backs it when configured; otherwise an in-memory TTL cache does,
// which is fine for a single instance.
type StateStore struct {
	redis  *redis.Client
	memory *cache.TTLCache
	ttl    time.Duration
}

// NewStateStore creates a state store over the given Redis client, or an
// in-memory one when the client is nil.
func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	store := &StateStore{redis: client, ttl: ttl}
	if client == nil {
		store.memory = cache.NewTTLCache()
	}
	return store
}

// Save records a pending state for the given provider.
func (s *StateStore) Save(ctx context.Context, state, provider string) error {
	key := stateKey(state)
	if s.redis != nil {
		return s.redis.Set(ctx, key, provider, s.ttl).Err()
	}
	s.memory.Set(key, provider, s.ttl)
	return nil
}

// Consume validates and deletes a state in one step. It returns false when
// the state is unknown, expired, or was issued for a different provider.
func (s *StateStore) Consume(ctx context.Context, state, provider string) bool {
	key := stateKey(state)
	if s.redis != nil {
		val, err := s.redis.GetDel(ctx, key).Result()
		if err != nil {
			return false
		}
		return val == provider
	}
	val, ok := s.memory.GetDel(key)
	return ok && val == provider
}

func stateKey(state string) string {
	return "connect:state:" + crypto.HashToken(state)
}
