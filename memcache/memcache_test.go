package memcache_test

import (
	"testing"

	"github.com/bignyap/s3filestore/memcache"
	"github.com/stretchr/testify/assert"
)

func TestClient(t *testing.T) {
	c := memcache.New(memcache.Config{DefaultTTL: memcache.NoExpiration})

	c.Set("abc", "data.csv", memcache.NoExpiration)
	c.Set("num", 42, memcache.NoExpiration)

	v, ok := c.GetString("abc")
	assert.True(t, ok)
	assert.Equal(t, "data.csv", v)

	_, ok = c.GetString("num")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Stats())

	c.Delete("abc")
	_, ok = c.Get("abc")
	assert.False(t, ok)

	c.Flush()
	assert.Equal(t, 0, c.Stats())
}
