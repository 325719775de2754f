package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// TextCache 按文档地址缓存提取出的文本。client 为空时所有操作都是空操作
type TextCache struct {
	client   *redis.Client
	ttl      time.Duration
	hitStats *hitStats
}

type hitStats struct {
	hits   int64
	misses int64
	mu     sync.RWMutex
}

// NewTextCache 创建文本缓存
func NewTextCache(client *redis.Client, ttl time.Duration) *TextCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TextCache{
		client:   client,
		ttl:      ttl,
		hitStats: &hitStats{},
	}
}

// Enabled 是否连接了Redis
func (c *TextCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get 读取缓存。未命中时 found 为 false
func (c *TextCache) Get(ctx context.Context, processorType, documentURL string) (text string, found bool, err error) {
	if !c.Enabled() {
		return "", false, nil
	}

	data, err := c.client.HGetAll(ctx, c.key(processorType, documentURL)).Result()
	if err != nil {
		c.recordMiss()
		return "", false, fmt.Errorf("failed to get cached text: %w", err)
	}
	text, ok := data["text"]
	if !ok {
		c.recordMiss()
		return "", false, nil
	}

	c.recordHit()
	return text, true, nil
}

// Set 写入提取结果并设置过期时间
func (c *TextCache) Set(ctx context.Context, processorType, documentURL, text string) error {
	if !c.Enabled() {
		return nil
	}

	key := c.key(processorType, documentURL)
	data := map[string]interface{}{
		"text":       text,
		"url":        documentURL,
		"created_at": time.Now().Unix(),
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store cached text: %w", err)
	}
	return nil
}

// Delete 删除某个地址的缓存
func (c *TextCache) Delete(ctx context.Context, processorType, documentURL string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, c.key(processorType, documentURL)).Err()
}

// Close 关闭Redis连接
func (c *TextCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// Stats 返回命中次数、未命中次数和命中率
func (c *TextCache) Stats() (hits, misses int64, hitRate float64) {
	if c == nil || c.hitStats == nil {
		return 0, 0, 0
	}
	c.hitStats.mu.RLock()
	defer c.hitStats.mu.RUnlock()

	hits = c.hitStats.hits
	misses = c.hitStats.misses
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return hits, misses, hitRate
}

// key 生成缓存键，地址取SHA-256避免超长键
func (c *TextCache) key(processorType, documentURL string) string {
	sum := sha256.Sum256([]byte(documentURL))
	return fmt.Sprintf("aiflow:text:%s:%s", processorType, hex.EncodeToString(sum[:]))
}

func (c *TextCache) recordHit() {
	c.hitStats.mu.Lock()
	c.hitStats.hits++
	c.hitStats.mu.Unlock()
}

func (c *TextCache) recordMiss() {
	c.hitStats.mu.Lock()
	c.hitStats.misses++
	c.hitStats.mu.Unlock()
}
