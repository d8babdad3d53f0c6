package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_USE_CLUSTER", "true")
	t.Setenv("REDIS_ADDRS", "r1:6379,r2:6379")

	cfg, err := LoadRedisConfig()
	require.NoError(t, err)
	assert.True(t, cfg.UseCluster)
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, cfg.Addrs)
	assert.Equal(t, 10, cfg.PoolSize)
}

func TestApplyDefaults_SingleNode(t *testing.T) {
	cfg := RedisConfig{}
	cfg.applyDefaults()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, 10, cfg.PoolSize)
}
