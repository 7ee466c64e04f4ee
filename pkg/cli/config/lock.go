package config

import (
	"context"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/insurdesk/concierge/pkg/service/lock"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Lock selects how indexing runs are serialized
type Lock struct {
	backend       string
	redisAddr     string
	redisPassword string
	redisDB       int
	ttl           time.Duration
}

func (l *Lock) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "lock-backend",
			Category:    "Lock",
			Usage:       "Indexing run lock (memory for one process, redis for several)",
			Value:       LockMemory,
			Sources:     cli.EnvVars("CONCIERGE_LOCK_BACKEND"),
			Destination: &l.backend,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Category:    "Lock",
			Usage:       "Redis address (host:port) for the redis lock",
			Sources:     cli.EnvVars("CONCIERGE_REDIS_ADDR"),
			Destination: &l.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Category:    "Lock",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("CONCIERGE_REDIS_PASSWORD"),
			Destination: &l.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Category:    "Lock",
			Usage:       "Redis database number",
			Sources:     cli.EnvVars("CONCIERGE_REDIS_DB"),
			Destination: &l.redisDB,
		},
		&cli.DurationFlag{
			Name:        "lock-ttl",
			Category:    "Lock",
			Usage:       "Expiry of a redis lock whose holder died",
			Value:       lock.DefaultRedisTTL,
			Sources:     cli.EnvVars("CONCIERGE_LOCK_TTL"),
			Destination: &l.ttl,
		},
	}
}

// Configure returns the locker and a function releasing its resources
func (l *Lock) Configure(ctx context.Context) (interfaces.Locker, func(), error) {
	switch l.backend {
	case "", LockMemory:
		return lock.NewMemory(), func() {}, nil

	case LockRedis:
		if l.redisAddr == "" {
			return nil, nil, goerr.Wrap(ErrMissingFlag, "redis-addr is required for the redis lock",
				goerr.V(FlagKey, "redis-addr"))
		}
		client := redis.NewClient(&redis.Options{
			Addr:     l.redisAddr,
			Password: l.redisPassword,
			DB:       l.redisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", l.redisAddr))
		}
		logging.From(ctx).Info("Using redis lock", "addr", l.redisAddr, "ttl", l.ttl.String())

		closer := func() {
			if err := client.Close(); err != nil {
				logging.Default().Warn("failed to close redis client", "error", err)
			}
		}
		return lock.NewRedis(client, l.ttl), closer, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "invalid lock backend", goerr.V(BackendKey, l.backend))
	}
}
