package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "attendsmart:reminder:"

// DedupRepository remembers which reminders were already sent. Entries expire after their TTL.
// With Redis it uses SET NX EX so several replicas share one view; without it an in-process map is used.
type DedupRepository struct {
	client *redis.Client
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewDedupRepository constructs the store. client may be nil.
func NewDedupRepository(client *redis.Client) *DedupRepository {
	return &DedupRepository{client: client, now: time.Now, entries: make(map[string]time.Time)}
}

// Claim records key and reports true when it was not already present.
func (r *DedupRepository) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client != nil {
		ok, err := r.client.SetNX(ctx, dedupKeyPrefix+key, 1, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis setnx %s: %w", key, err)
		}
		return ok, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.evictLocked(now)
	if _, exists := r.entries[key]; exists {
		return false, nil
	}
	r.entries[key] = now.Add(ttl)
	return true, nil
}

// Release forgets key so the next scan can claim it again.
func (r *DedupRepository) Release(ctx context.Context, key string) error {
	if r.client != nil {
		if err := r.client.Del(ctx, dedupKeyPrefix+key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
		return nil
	}
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
	return nil
}

func (r *DedupRepository) evictLocked(now time.Time) {
	for key, expires := range r.entries {
		if !now.Before(expires) {
			delete(r.entries, key)
		}
	}
}
