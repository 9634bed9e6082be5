package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DriverAuto     = "auto"
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Options selects and configures a driver.
type Options struct {
	Driver      string
	DatabaseURL string
	RedisURL    string
	RedisTTL    time.Duration
	BoltPath    string
}

// ResolveDriver picks the concrete driver for "auto": postgres, then redis,
// then bolt, then memory, by whichever is configured first.
func ResolveDriver(opts Options) string {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver != "" && driver != DriverAuto {
		return driver
	}
	switch {
	case strings.TrimSpace(opts.DatabaseURL) != "":
		return DriverPostgres
	case strings.TrimSpace(opts.RedisURL) != "":
		return DriverRedis
	case strings.TrimSpace(opts.BoltPath) != "":
		return DriverBolt
	default:
		return DriverMemory
	}
}

// NewStore creates the configured store.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch driver := ResolveDriver(opts); driver {
	case DriverMemory:
		return NewInMemoryStore(), nil
	case DriverBolt:
		if strings.TrimSpace(opts.BoltPath) == "" {
			return nil, fmt.Errorf("bolt store requires STORE_BOLT_PATH")
		}
		return NewBoltStore(opts.BoltPath)
	case DriverRedis:
		if strings.TrimSpace(opts.RedisURL) == "" {
			return nil, fmt.Errorf("redis store requires REDIS_URL")
		}
		return NewRedisStore(ctx, opts.RedisURL, opts.RedisTTL)
	case DriverPostgres:
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, fmt.Errorf("postgres store requires DATABASE_URL")
		}
		return NewPostgresStore(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
