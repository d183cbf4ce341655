package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedKeyPrefix = "reconcile:seen:v1:"

// ProcessedStore remembers which message-log records were already handled.
// It is the first line of the exactly-once guarantee; the ledger's
// idempotency keys are the second and final one.
type ProcessedStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type memoryProcessed struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewMemoryProcessed builds a volatile processed-record set. It grows for the
// process lifetime and is lost on restart; pair it with ledger idempotency.
func NewMemoryProcessed() ProcessedStore {
	return &memoryProcessed{seen: make(map[string]struct{})}
}

func (m *memoryProcessed) Seen(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[key]
	return ok, nil
}

func (m *memoryProcessed) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = struct{}{}
	return nil
}

type redisProcessed struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisProcessed builds a processed-record set that survives restarts.
// Entries expire after ttl, which must comfortably exceed the vendor's
// message-log retention window.
func NewRedisProcessed(cache *redis.Client, ttl time.Duration) ProcessedStore {
	return &redisProcessed{cache: cache, ttl: ttl}
}

func (r *redisProcessed) Seen(ctx context.Context, key string) (bool, error) {
	n, err := r.cache.Exists(ctx, processedKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisProcessed) Mark(ctx context.Context, key string) error {
	return r.cache.Set(ctx, processedKeyPrefix+key, "1", r.ttl).Err()
}
