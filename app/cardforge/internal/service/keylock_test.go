package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lk2023060901/cardforge/pkg/database/redis"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSerializes(t *testing.T, locker KeyLocker) {
	t.Helper()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, 7)
	require.NoError(t, err)

	acquired := make(chan func(), 1)
	go func() {
		u, err := locker.Lock(ctx, 7)
		if err == nil {
			acquired <- u
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(100 * time.Millisecond):
	}

	unlock()
	select {
	case u := <-acquired:
		u()
	case <-time.After(5 * time.Second):
		t.Fatal("second lock not acquired after release")
	}
}

func TestStripedLocker(t *testing.T) {
	assertSerializes(t, NewStripedLocker(4))

	t.Run("zero stripes", func(t *testing.T) {
		l := NewStripedLocker(0)
		unlock, err := l.Lock(context.Background(), 1)
		require.NoError(t, err)
		unlock()
	})
}

func TestRedisLocker_Integration(t *testing.T) {
	addr := os.Getenv("CARDFORGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CARDFORGE_TEST_REDIS_ADDR not set")
	}
	client, err := redis.NewClient(context.Background(), &redis.Config{
		Addrs:     strings.Split(addr, ","),
		KeyPrefix: "cardforge:test:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, RedisLockConfig{TTL: 5 * time.Second, RetryInterval: 10 * time.Millisecond}, logger.NewNoop())
	assertSerializes(t, locker)

	t.Run("gives up after retries", func(t *testing.T) {
		short := NewRedisLocker(client, RedisLockConfig{TTL: 5 * time.Second, RetryInterval: time.Millisecond, MaxRetries: 2}, logger.NewNoop())
		unlock, err := short.Lock(context.Background(), 8)
		require.NoError(t, err)
		defer unlock()

		_, err = short.Lock(context.Background(), 8)
		assert.Error(t, err)
	})
}
