package urlmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding every id -> filename entry.
const DefaultRedisKey = "filestore_url_map"

// Redis stores the map as one hash.
type Redis struct {
	client redis.UniversalClient
	key    string
}

var _ Store = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Lookup(ctx context.Context, id string) (string, bool, error) {
	name, err := r.client.HGet(ctx, r.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", id, err)
	}
	return name, true, nil
}

func (r *Redis) Record(ctx context.Context, id, filename string) error {
	if err := r.client.HSet(ctx, r.key, id, filename).Err(); err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, id string) error {
	if err := r.client.HDel(ctx, r.key, id).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
