package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/harvestconnect/harvestcart/pkg/db"
	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T) (*SQL, *db.Client) {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Driver: config.BackendSQLite,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&db.KVEntry{}))
	return NewSQL(client, time.Second), client
}

func TestSQLUpsert(t *testing.T) {
	store, client := newSQLStore(t)
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return first }

	_, found, err := store.Get("harvest_cart")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("harvest_cart", `[{"id":1,"title":"Apples","price":2.5,"quantity":1}]`))
	store.now = func() time.Time { return first.Add(time.Minute) }
	require.NoError(t, store.Set("harvest_cart", "[]"))

	value, found, err := store.Get("harvest_cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)

	var rows []db.KVEntry
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].UpdatedAt.Equal(first.Add(time.Minute)))

	assert.NoError(t, store.Ping(context.Background()))
}

func TestSQLKeysAreIndependent(t *testing.T) {
	store, _ := newSQLStore(t)
	require.NoError(t, store.Set(ScopePrefix("a")+"harvest_cart", "[]"))

	_, found, err := store.Get(ScopePrefix("b") + "harvest_cart")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLErrorsAreTyped(t *testing.T) {
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Driver: config.BackendSQLite,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	store := NewSQL(client, time.Second)

	_, _, err = store.Get("harvest_cart")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStorage, typed.Code())
}
