package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLimiter_Window(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRedisLimiter(client, 2, time.Minute)
	l.nowFunc = func() time.Time { return now }

	want := []bool{true, true, false}
	for i, w := range want {
		got, err := l.Check(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if got != w {
			t.Errorf("request %d: Check() = %v, want %v", i, got, w)
		}
	}

	if ok, _ := l.Check(ctx, "5.6.7.8"); !ok {
		t.Error("other key should have its own counter")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Check(ctx, "1.2.3.4"); !ok {
		t.Error("next window should reset the counter")
	}
}

func TestRedisLimiter_SetsExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	now := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	l := NewRedisLimiter(client, 5, time.Minute, WithPrefix("test"))
	l.nowFunc = func() time.Time { return now }

	if _, err := l.Check(context.Background(), "k"); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("keys = %v, want one counter", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestRedisLimiter_BackendError(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 5, time.Minute)
	mr.Close()

	if _, err := l.Check(context.Background(), "k"); err == nil {
		t.Error("Check() error = nil, want error when redis is down")
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Error("NewRedisClient() error = nil, want connection error")
	}
}
