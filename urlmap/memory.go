package urlmap

import (
	"context"

	"github.com/bignyap/s3filestore/memcache"
)

// Memory keeps the map in process. Entries never expire.
type Memory struct {
	cache *memcache.Client
}

var _ Store = (*Memory)(nil)

func NewMemory(cache *memcache.Client) *Memory {
	return &Memory{cache: cache}
}

func (m *Memory) Lookup(_ context.Context, id string) (string, bool, error) {
	name, ok := m.cache.GetString(id)
	return name, ok, nil
}

func (m *Memory) Record(_ context.Context, id, filename string) error {
	m.cache.Set(id, filename, memcache.NoExpiration)
	return nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
