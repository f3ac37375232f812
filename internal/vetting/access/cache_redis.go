package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"membergate/internal/vetting/ports"
	id "membergate/pkg/domain"
)

// statusKeyPrefix namespaces the cache so other tenants of the same Redis
// never collide with it.
const statusKeyPrefix = "vetting:status:"

// RedisCache shares status snapshots across instances so an invalidation on
// the node that processed the transition is seen everywhere.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) (*RedisCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisCache{client: client}, nil
}

func statusKey(userID id.UserID) string {
	return statusKeyPrefix + userID.String()
}

func (c *RedisCache) Get(ctx context.Context, userID id.UserID) (*ports.StatusSnapshot, error) {
	raw, err := c.client.Get(ctx, statusKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status snapshot: %w", err)
	}

	var snap ports.StatusSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A snapshot this process cannot read is worthless; drop it so the
		// next lookup repopulates from the store.
		_ = c.client.Del(ctx, statusKey(userID)).Err()
		return nil, nil
	}
	return &snap, nil
}

func (c *RedisCache) Set(ctx context.Context, userID id.UserID, snap ports.StatusSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal status snapshot: %w", err)
	}
	if err := c.client.Set(ctx, statusKey(userID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set status snapshot: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID id.UserID) error {
	if err := c.client.Del(ctx, statusKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate status snapshot: %w", err)
	}
	return nil
}
