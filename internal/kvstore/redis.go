package kvstore

import (
	"context"
	"time"

	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"github.com/harvestconnect/harvestcart/pkg/redis"
)

// Redis stores carts as plain string values with a sliding TTL. Every write
// refreshes the expiry.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func NewRedis(client *redis.Client, ttl, opTimeout time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, opTimeout: opTimeout}
}

func (r *Redis) Get(key string) (string, bool, error) {
	ctx, cancel := r.opContext()
	defer cancel()
	value, found, err := r.client.Lookup(ctx, r.client.CartKey(key))
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "redis get cart")
	}
	return value, found, nil
}

func (r *Redis) Set(key, value string) error {
	ctx, cancel := r.opContext()
	defer cancel()
	if err := r.client.Set(ctx, r.client.CartKey(key), value, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "redis set cart")
	}
	return nil
}

// Client exposes the underlying connection so other concerns can share it.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}
