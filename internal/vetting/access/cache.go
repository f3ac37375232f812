package access

import (
	"context"
	"sync"
	"time"

	"membergate/internal/vetting/ports"
	id "membergate/pkg/domain"
)

// numCacheShards spreads cache entries across independently locked shards.
// The gate is read on every RSVP/purchase render, so a single lock would
// serialize the hot path.
const numCacheShards = 64

type cacheEntry struct {
	snap      ports.StatusSnapshot
	expiresAt time.Time
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[id.UserID]cacheEntry
}

// MemoryCache is the in-process status cache. Entries expire by TTL and are
// dropped eagerly on invalidation.
type MemoryCache struct {
	shards [numCacheShards]cacheShard
	now    func() time.Time
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{now: time.Now}
	for i := range c.shards {
		c.shards[i].entries = make(map[id.UserID]cacheEntry)
	}
	return c
}

func (c *MemoryCache) shard(userID id.UserID) *cacheShard {
	return &c.shards[hashUserID(userID)%numCacheShards]
}

// hashUserID uses FNV-1a over the textual id for shard distribution.
func hashUserID(userID id.UserID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	s := userID.String()
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

func (c *MemoryCache) Get(_ context.Context, userID id.UserID) (*ports.StatusSnapshot, error) {
	shard := c.shard(userID)
	shard.mu.RLock()
	entry, ok := shard.entries[userID]
	shard.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.now().After(entry.expiresAt) {
		shard.mu.Lock()
		// Re-check under the write lock; a Set may have raced the expiry.
		if current, still := shard.entries[userID]; still && c.now().After(current.expiresAt) {
			delete(shard.entries, userID)
		}
		shard.mu.Unlock()
		return nil, nil
	}
	snap := entry.snap
	return &snap, nil
}

func (c *MemoryCache) Set(_ context.Context, userID id.UserID, snap ports.StatusSnapshot, ttl time.Duration) error {
	shard := c.shard(userID)
	shard.mu.Lock()
	shard.entries[userID] = cacheEntry{snap: snap, expiresAt: c.now().Add(ttl)}
	shard.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userID id.UserID) error {
	shard := c.shard(userID)
	shard.mu.Lock()
	delete(shard.entries, userID)
	shard.mu.Unlock()
	return nil
}
