//go:build unit

package cache

import (
	"testing"
	"time"

	"aternotes/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(config.CacheConfig{FilePath: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t)

	value, err := c.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, c.Set("guides:published", []byte(`[1,2]`), time.Minute))
	value, err = c.Get("guides:published")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), value)

	require.NoError(t, c.Set("guides:published", []byte(`[3]`), time.Minute))
	value, err = c.Get("guides:published")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[3]`), value)

	require.NoError(t, c.Delete("guides:published"))
	value, err = c.Get("guides:published")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("a", []byte("1"), time.Minute))
	require.NoError(t, c.Set("b", []byte("2"), time.Hour))

	now = now.Add(2 * time.Minute)
	value, err := c.Get("a")
	require.NoError(t, err)
	assert.Nil(t, value, "expired item should be a miss")

	value, err = c.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), value)

	now = now.Add(2 * time.Hour)
	purged, err := c.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(config.CacheConfig{})
	assert.Error(t, err)
}
