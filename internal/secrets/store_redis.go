package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vouch/pkg/platform/sentinel"
)

const (
	// Redis key prefix for session secret slots.
	secretKeyPrefix = "vouch:secret:"

	fieldPasscode = "passcode"
	fieldPhrase   = "phrase"
)

// RedisStore is a Redis-backed Store for multi-instance deployments. The
// slot is one hash per session so passcode and phrase share a lifetime.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed secret store. A zero ttl keeps
// slots until Clear.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Save(ctx context.Context, sessionID string, b Bundle) error {
	key := secretKeyPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldPasscode, b.Passcode, fieldPhrase, b.RecoveryPhrase)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save secret slot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Bundle, error) {
	values, err := s.client.HGetAll(ctx, secretKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Bundle{}, sentinel.ErrNotFound
		}
		return Bundle{}, fmt.Errorf("load secret slot: %w", err)
	}
	if len(values) == 0 {
		return Bundle{}, sentinel.ErrNotFound
	}
	return Bundle{
		Passcode:       values[fieldPasscode],
		RecoveryPhrase: values[fieldPhrase],
	}, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, secretKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear secret slot: %w", err)
	}
	return nil
}
