package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestLookupDistinguishesMissingKeys(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := NewWithCmdable(mock)

	if _, found, err := client.Lookup(ctx, "hc:cart:missing"); err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}

	if err := client.Set(ctx, "hc:cart:k", "[]", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, found, err := client.Lookup(ctx, "hc:cart:k")
	if err != nil || !found || value != "[]" {
		t.Fatalf("unexpected lookup value=%q found=%v err=%v", value, found, err)
	}
	if mock.ttls["hc:cart:k"] != time.Hour {
		t.Fatalf("expected ttl to be forwarded, got %v", mock.ttls["hc:cart:k"])
	}

	if err := client.Del(ctx, "hc:cart:k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, found, _ := client.Lookup(ctx, "hc:cart:k"); found {
		t.Fatalf("expected key removed")
	}
}

func TestLookupSurfacesErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.err = errors.New("connection refused")
	client := NewWithCmdable(mock)

	if _, _, err := client.Lookup(context.Background(), "k"); err == nil {
		t.Fatalf("expected error")
	}
	if err := client.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op: %v", err)
	}
}

func TestSetNXAndGet(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := NewWithCmdable(mock)

	if _, err := client.Get(ctx, "missing"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for missing key, got %v", err)
	}
	ok, err := client.SetNX(ctx, "k", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "second", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, ok=%v err=%v", ok, err)
	}
	if v, _ := client.Get(ctx, "k"); v != "first" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestIdempotencyKey(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("sess|POST|/api/v1/cart/items", "abc"); got != "hc:idempotency:sess|POST|/api/v1/cart/items:abc" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
}

func TestCartKey(t *testing.T) {
	client := &Client{}
	if got := client.CartKey("session:abc:harvest_cart"); got != "hc:cart:session:abc:harvest_cart" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.CartKey(" "); got != "hc:cart" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@localhost:6380/2", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("unexpected parsed options %+v", opts)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("expected pool settings applied, got pool=%d dial=%v", opts.PoolSize, opts.DialTimeout)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 3 {
		t.Fatalf("unexpected address options %+v", opts)
	}
}

// mockCmdable is an in-memory cmdable.
type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if m.err != nil {
		return redis.NewBoolResult(false, m.err)
	}
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}
