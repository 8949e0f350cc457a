package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kurbar/trustly-go/internal/core/ports"
)

// DuplicateCache implements ports.DuplicateCache using Redis. It fronts
// the notification store for the common case of a quickly redelivered
// notification; the store remains the authority.
type DuplicateCache struct {
	client *goredis.Client
	prefix string
}

// NewDuplicateCache creates a new Redis-backed duplicate cache.
func NewDuplicateCache(client *goredis.Client) *DuplicateCache {
	return &DuplicateCache{
		client: client,
		prefix: "notification:seen:",
	}
}

var _ ports.DuplicateCache = (*DuplicateCache)(nil)

// Seen reports whether the notification id was recently observed.
func (c *DuplicateCache) Seen(ctx context.Context, id int64) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis duplicate check: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records the notification id with a TTL.
func (c *DuplicateCache) MarkSeen(ctx context.Context, id int64, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis duplicate mark: %w", err)
	}
	return nil
}

func (c *DuplicateCache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}
