package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSQL(t *testing.T) KV {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	store, err := NewSQL(conn)
	require.NoError(t, err)
	return store
}

func newTestRedis(t *testing.T) KV {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store, err := NewRedis(client)
	require.NoError(t, err)
	return store
}

func TestKVRoundTrip(t *testing.T) {
	backends := map[string]KV{
		"sql":   newTestSQL(t),
		"redis": newTestRedis(t),
	}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, found, err := store.Get(ctx, "app_user_id")
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, store.Set(ctx, "app_user_id", "abc123"))

			value, found, err := store.Get(ctx, "app_user_id")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "abc123", value)
		})
	}
}

func TestKVOverwrite(t *testing.T) {
	backends := map[string]KV{
		"sql":   newTestSQL(t),
		"redis": newTestRedis(t),
	}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "is_first_run", "true"))
			require.NoError(t, store.Set(ctx, "is_first_run", "false"))

			value, found, err := store.Get(ctx, "is_first_run")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "false", value)
		})
	}
}

func TestNewSQLNilConnection(t *testing.T) {
	_, err := NewSQL(nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewRedisNilClient(t *testing.T) {
	_, err := NewRedis(nil)
	require.ErrorIs(t, err, ErrUnavailable)
}
