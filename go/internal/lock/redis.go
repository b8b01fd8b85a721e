package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockTimeout is returned when a key stays held past the wait budget.
var ErrLockTimeout = errors.New("timed out waiting for lock")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	Prefix    string
	TTL       time.Duration // how long a lock survives a crashed holder
	Wait      time.Duration // how long Lock keeps retrying a held key
	RetryWait time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:    "ledger:lock:",
		TTL:       30 * time.Second,
		Wait:      10 * time.Second,
		RetryWait: 50 * time.Millisecond,
	}
}

// RedisLocker locks keys across processes with SET NX PX and a token-checked release.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisConfig
}

func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig) *RedisLocker {
	return &RedisLocker{client: client, cfg: cfg}
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	token := uuid.NewString()
	var held []string

	release := func() {
		// Release must run even if ctx was cancelled.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(relCtx, l.client, []string{held[i]}, token).Err(); err != nil {
				log.Error().Err(err).Str("key", held[i]).Msg("failed to release lock")
			}
		}
	}

	for _, key := range keys {
		full := l.cfg.Prefix + key
		if err := l.acquire(ctx, full, token); err != nil {
			release()
			return nil, fmt.Errorf("failed to lock %s: %w", key, err)
		}
		held = append(held, full)
	}

	log.Debug().Strs("keys", keys).Msg("locks acquired")
	var released bool
	return func() {
		if released {
			return
		}
		released = true
		release()
	}, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.cfg.Wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.RetryWait):
		}
	}
}
