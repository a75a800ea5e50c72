package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/peechi-bot/peechi/internal/redis"
	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T, port int) *redis.Manager {
	t.Helper()
	manager := redis.NewManager(&config.Redis{Host: "127.0.0.1", Port: port}, zap.NewNop())
	t.Cleanup(manager.Close)
	return manager
}

func TestGetClientReusesConnection(t *testing.T) {
	t.Parallel()
	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)

	manager := newManager(t, port)

	first, err := manager.GetClient(redis.CacheDBIndex)
	require.NoError(t, err)
	second, err := manager.GetClient(redis.CacheDBIndex)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestGetClientUnreachable(t *testing.T) {
	t.Parallel()
	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)
	server.Close()

	manager := newManager(t, port)

	_, err = manager.GetClient(redis.CacheDBIndex)
	assert.Error(t, err)
}
