package cache

import (
	"context"
	"testing"
	"time"

	"github.com/aiflow/backend-go/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docType = "document-to-text-processor"

func newTestCache(t *testing.T, ttl time.Duration) (*TextCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTextCache(client, ttl), mr
}

func TestTextCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, found, err := c.Get(ctx, docType, "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, docType, "https://example.com/a.pdf", "extracted"))

	text, found, err := c.Get(ctx, docType, "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "extracted", text)

	hits, misses, rate := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.InDelta(t, 0.5, rate, 0.0001)
}

func TestTextCache_EmptyTextIsAHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, docType, "https://example.com/blank.txt", ""))

	text, found, err := c.Get(ctx, docType, "https://example.com/blank.txt")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, text)
}

func TestTextCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, docType, "https://example.com/a.pdf", "extracted"))
	assert.Equal(t, time.Minute, mr.TTL(c.key(docType, "https://example.com/a.pdf")))

	mr.FastForward(2 * time.Minute)

	_, found, err := c.Get(ctx, docType, "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTextCache_Delete(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, docType, "https://example.com/a.pdf", "extracted"))
	require.NoError(t, c.Delete(ctx, docType, "https://example.com/a.pdf"))

	_, found, err := c.Get(ctx, docType, "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTextCache_KeyIsHashed(t *testing.T) {
	c := NewTextCache(nil, 0)
	key := c.key(docType, "https://example.com/a.pdf?token=secret")

	assert.NotContains(t, key, "secret")
	assert.Len(t, key, len("aiflow:text:"+docType+":")+64)
	assert.NotEqual(t, key, c.key(docType, "https://example.com/b.pdf"))
}

func TestTextCache_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*TextCache{nil, NewTextCache(nil, time.Minute)} {
		assert.False(t, c.Enabled())
		assert.NoError(t, c.Set(ctx, docType, "https://example.com/a.pdf", "x"))
		_, found, err := c.Get(ctx, docType, "https://example.com/a.pdf")
		assert.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, c.Delete(ctx, docType, "https://example.com/a.pdf"))
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), config.CacheConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.CacheConfig{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
