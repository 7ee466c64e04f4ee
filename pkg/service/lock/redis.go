package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisTTL   = 5 * time.Minute
	defaultRetryDelay = 100 * time.Millisecond
	redisKeyPrefix    = "concierge:lock:"
)

// releaseScript deletes the key only while it still holds our token so an
// expired lock taken over by another holder is left alone
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript refreshes the expiry only while the key holds our token
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a lock shared by every replica using the same Redis
type Redis struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

var _ interfaces.Locker = (*Redis)(nil)

// NewRedis creates a Redis backed lock. ttl bounds how long a crashed holder
// keeps the key; a live holder renews it every ttl/3 until unlock.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &Redis{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to acquire redis lock", goerr.V("key", key))
		}
		if ok {
			break
		}

		select {
		case <-time.After(r.retryDelay):
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "failed to acquire redis lock", goerr.V("key", key))
		}
	}

	done := make(chan struct{})
	go r.renew(ctx, key, redisKey, token, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			// release must run even when the caller context is already done
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				logging.From(ctx).Warn("Failed to release redis lock",
					slog.String("key", key),
					slog.Any("error", err),
				)
			}
		})
	}, nil
}

func (r *Redis) renew(ctx context.Context, key, redisKey, token string, done <-chan struct{}) {
	ctx = context.WithoutCancel(ctx)
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			extendCtx, cancel := context.WithTimeout(ctx, r.ttl/3)
			held, err := extendScript.Run(extendCtx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				logging.From(ctx).Warn("Failed to renew redis lock",
					slog.String("key", key),
					slog.Any("error", err),
				)
				continue
			}
			if held == 0 {
				logging.From(ctx).Error("Redis lock lost before release", slog.String("key", key))
				return
			}
		}
	}
}
