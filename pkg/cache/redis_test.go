package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/pkg/config"
)

func TestNewRedisFailsOnUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client, err := NewRedis(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestReadinessCheckReportsUnreachableCache(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close() //nolint:errcheck

	err := ReadinessCheck(client)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping proposal cache")

	assert.EqualError(t, ReadinessCheck(nil)(context.Background()), "proposal cache not configured")
}
