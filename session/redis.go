package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fablecraft/storyagent/core"
)

// RedisOptions tune the Redis-backed store.
type RedisOptions struct {
	// KeyPrefix namespaces checkpoint keys, "storyagent:session:" by default.
	KeyPrefix string
	// TTL expires idle sessions. Zero means no expiry.
	TTL time.Duration
}

// RedisStore checkpoints sessions as JSON values in Redis. Suitable for
// multi-process deployments where turns for one session may land on different
// instances, as long as the caller still serializes turns per session key.
type RedisStore struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{KeyPrefix: "storyagent:session:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{client: client, opts: opts}
}

// NewRedisStoreFromURL dials Redis from a redis:// URL, falling back to
// treating the value as a plain address.
func NewRedisStoreFromURL(ctx context.Context, url string, optFns ...func(o *RedisOptions)) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStore(client, optFns...), nil
}

func (s *RedisStore) key(sessionKey string) string {
	return s.opts.KeyPrefix + sessionKey
}

// Load fetches and decodes the checkpoint, returning (nil, nil) when absent.
func (s *RedisStore) Load(ctx context.Context, sessionKey string) (*core.SessionState, error) {
	raw, err := s.client.Get(ctx, s.key(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", sessionKey, err)
	}

	var state core.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", sessionKey, err)
	}
	return &state, nil
}

// Save encodes and stores the checkpoint under the key.
func (s *RedisStore) Save(ctx context.Context, sessionKey string, state *core.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", sessionKey, err)
	}
	if err := s.client.Set(ctx, s.key(sessionKey), raw, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("save session %q: %w", sessionKey, err)
	}
	return nil
}
