package redisnovelty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lbarbosa/questora/internal/core/domain"
)

const keyPrefix = "novelty:"

// Cache keeps a bounded per-topic list of recent stem embeddings in Redis so
// concurrent API instances share dedup state. Entries expire after TTL; the
// stem index remains the durable record.
type Cache struct {
	client  *redis.Client
	maxSize int64
	ttl     time.Duration
}

func New(addr, password string, maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 50
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		maxSize: int64(maxSize),
		ttl:     ttl,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Recent(ctx context.Context, topic string, limit int) ([]domain.StemEmbedding, error) {
	if limit <= 0 {
		limit = int(c.maxSize)
	}

	raw, err := c.client.LRange(ctx, keyPrefix+topic, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("novelty lrange: %w", err)
	}

	out := make([]domain.StemEmbedding, 0, len(raw))
	for _, item := range raw {
		var entry domain.StemEmbedding
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip entries written by incompatible versions.
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Cache) Remember(ctx context.Context, topic string, entry domain.StemEmbedding) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal novelty entry: %w", err)
	}

	key := keyPrefix + topic
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, c.maxSize-1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("novelty push: %w", err)
	}
	return nil
}
