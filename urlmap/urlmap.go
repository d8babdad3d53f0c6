// Package urlmap keeps the optional resource id to stored filename side
// table. Keys are always derived from ids and filenames; the table only
// remembers which filename a resource last uploaded, for clears and for
// migrating a local filestore.
package urlmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/bignyap/s3filestore/database"
	"github.com/bignyap/s3filestore/memcache"
	"github.com/bignyap/s3filestore/redisclient"
)

// Store is implemented by every backend.
type Store interface {
	Lookup(ctx context.Context, id string) (filename string, found bool, err error)
	Record(ctx context.Context, id, filename string) error
	Remove(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQL    = "sql"
	BackendRedis  = "redis"
)

// Open builds the backend named by backend, reading its connection settings
// from the environment. BackendNone returns a nil Store.
func Open(ctx context.Context, backend string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendNone:
		return nil, nil

	case BackendMemory:
		return NewMemory(memcache.New(memcache.Config{DefaultTTL: memcache.NoExpiration})), nil

	case BackendSQL:
		cfg, err := database.LoadDatabaseConfig()
		if err != nil {
			return nil, err
		}
		conn, err := database.NewConnectionFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		if err := conn.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return NewSQL(conn)

	case BackendRedis:
		cfg, err := redisclient.LoadRedisConfig()
		if err != nil {
			return nil, err
		}
		client, err := redisclient.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, DefaultRedisKey), nil

	default:
		return nil, fmt.Errorf("unsupported url map backend: %s (supported: none, memory, sql, redis)", backend)
	}
}
