package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// persistedState is the durable subset of the session. Loading and Err are
// transient and never written.
type persistedState struct {
	User          *User  `json:"user"`
	Token         string `json:"token"`
	Authenticated bool   `json:"authenticated"`
}

// Storage persists the durable session subset under a single key.
type Storage interface {
	Load(ctx context.Context) (*persistedState, error)
	Save(ctx context.Context, state persistedState) error
	Clear(ctx context.Context) error
}

// RedisStorage stores the session subset as a JSON blob in Redis.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage constructs a RedisStorage. An empty key falls back to the
// default session key.
func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	if key == "" {
		key = "pilotdeck:session"
	}
	return &RedisStorage{client: client, key: key}
}

// Load reads the persisted session subset. A missing key yields (nil, nil).
func (s *RedisStorage) Load(ctx context.Context) (*persistedState, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var stored persistedState
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &stored, nil
}

// Save writes the persisted session subset.
func (s *RedisStorage) Save(ctx context.Context, state persistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Clear removes the persisted session subset.
func (s *RedisStorage) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
