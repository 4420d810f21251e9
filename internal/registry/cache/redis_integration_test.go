//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberdesk/internal/registry"
	"memberdesk/internal/registry/cache"
	"memberdesk/pkg/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := cache.NewRedis(rc.Client, time.Minute)
		record := registry.NewRecord(registry.SourceKVK, "Acme B.V.", "12345678", "NL", "Actief", time.Now().UTC())

		require.NoError(t, c.Put(ctx, record))

		got, hit, err := c.Get(ctx, registry.SourceKVK, "12345678")
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, record.CompanyName, got.CompanyName)
		assert.Equal(t, record.Activity, got.Activity)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := cache.NewRedis(rc.Client, time.Minute)

		_, hit, err := c.Get(ctx, registry.SourceKVK, "00000000")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("entries expire", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := cache.NewRedis(rc.Client, 200*time.Millisecond)
		record := registry.NewRecord(registry.SourceKVK, "Acme B.V.", "12345678", "NL", "Actief", time.Now().UTC())

		require.NoError(t, c.Put(ctx, record))
		time.Sleep(400 * time.Millisecond)

		_, hit, err := c.Get(ctx, registry.SourceKVK, "12345678")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("corrupt entry reads as miss", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		c := cache.NewRedis(rc.Client, time.Minute)

		require.NoError(t, rc.Client.Set(ctx, "registry:kvk:12345678", "{not json", time.Minute).Err())

		_, hit, err := c.Get(ctx, registry.SourceKVK, "12345678")
		require.NoError(t, err)
		assert.False(t, hit)
	})
}
