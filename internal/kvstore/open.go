package kvstore

import (
	"context"
	"fmt"

	"github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/harvestconnect/harvestcart/pkg/db"
	"github.com/harvestconnect/harvestcart/pkg/logger"
	"github.com/harvestconnect/harvestcart/pkg/redis"
)

// Backend is a cart key-value store that can report readiness and release
// its connections.
type Backend interface {
	cart.KeyValueStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*File)(nil)
	_ Backend = (*Redis)(nil)
	_ Backend = (*SQL)(nil)
)

// Open builds the backend named by cfg.Cart.Backend.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Backend, error) {
	backend := cfg.Cart.NormalizedBackend()
	switch backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile:
		return NewFile(cfg.Cart.FileDir)
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		return NewRedis(client, cfg.Cart.RedisTTL, cfg.Cart.OpTimeout), nil
	case config.BackendPostgres, config.BackendSQLite:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if client.Driver() == config.BackendSQLite {
			if err := client.DB().WithContext(ctx).AutoMigrate(&db.KVEntry{}); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("migrating sqlite schema: %w", err)
			}
		}
		return NewSQL(client, cfg.Cart.OpTimeout), nil
	default:
		return nil, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
	}
}
