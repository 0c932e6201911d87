package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.Config
		want any
	}{
		{name: "memory", cfg: config.Config{Cart: config.CartConfig{Backend: "memory"}}, want: &Memory{}},
		{name: "file", cfg: config.Config{Cart: config.CartConfig{Backend: "FILE", FileDir: t.TempDir()}}, want: &File{}},
		{
			name: "sqlite",
			cfg: config.Config{
				Cart: config.CartConfig{Backend: "sqlite", OpTimeout: time.Second},
				DB:   config.DBConfig{Driver: config.BackendSQLite, DSN: "file:open_sqlite?mode=memory&cache=shared"},
			},
			want: &SQL{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			backend, err := Open(ctx, &cfg, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = backend.Close() })
			assert.IsType(t, tt.want, backend)
			assert.NoError(t, backend.Ping(ctx))

			require.NoError(t, backend.Set("harvest_cart", "[]"))
			value, found, err := backend.Get("harvest_cart")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "[]", value)
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Cart: config.CartConfig{Backend: "etcd"}}, nil)
	assert.Error(t, err)
}
