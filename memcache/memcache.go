package memcache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// NoExpiration keeps an item until it is deleted.
const NoExpiration = cache.NoExpiration

type Client struct {
	c *cache.Cache
}

type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

func New(cfg Config) *Client {
	return &Client{
		c: cache.New(cfg.DefaultTTL, cfg.CleanupInterval),
	}
}

func (mc *Client) Set(key string, val interface{}, ttl time.Duration) {
	mc.c.Set(key, val, ttl)
}

func (mc *Client) Get(key string) (interface{}, bool) {
	return mc.c.Get(key)
}

// GetString returns the value of key when it is a string.
func (mc *Client) GetString(key string) (string, bool) {
	v, ok := mc.c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (mc *Client) Delete(key string) {
	mc.c.Delete(key)
}

func (mc *Client) Flush() {
	mc.c.Flush()
}

func (mc *Client) Stats() int {
	return mc.c.ItemCount()
}
