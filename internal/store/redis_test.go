package store

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatfeed/internal/config"
	"chatfeed/internal/redis"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed store tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Host:      host,
			Port:      port,
			KeyPrefix: "chatfeed-test-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		},
	}
	client, err := redis.NewRedisClient(cfg)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	s := NewRedisStore(client)
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		_ = s.Close()
	})
	return s
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, newRedisTestStore(t))
}

func TestRedisClearLeavesNoOrphans(t *testing.T) {
	req := require.New(t)
	s := newRedisTestStore(t)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := s.Insert(ctx, sample("racing", "test", now.Add(time.Duration(j)*time.Millisecond))); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		req.NoError(s.Clear(ctx))
	}
	wg.Wait()

	raw := s.client.Raw()
	hashes, err := raw.Keys(ctx, s.client.Key("message", "*")).Result()
	req.NoError(err)
	indexed, err := raw.ZCard(ctx, s.index).Result()
	req.NoError(err)
	req.EqualValues(len(hashes), indexed)

	req.NoError(s.Clear(ctx))
	hashes, err = raw.Keys(ctx, s.client.Key("message", "*")).Result()
	req.NoError(err)
	req.Empty(hashes)
}
