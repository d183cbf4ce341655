package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu       sync.RWMutex
	channels map[string]Channel // keyed by phone
	lastUsed string
}

// NewMemoryRepository builds an in-memory channel store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{channels: make(map[string]Channel)}
}

func (r *memoryRepository) EnsureEnabled(_ context.Context, phone string) (Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[phone]
	if !ok {
		ch = Channel{ID: uuid.NewString(), Phone: phone, Enabled: true, CreatedAt: time.Now().UTC()}
	}
	ch.Enabled = true
	r.channels[phone] = ch
	r.lastUsed = phone
	return ch, nil
}

func (r *memoryRepository) ActivePhone(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ch, ok := r.channels[r.lastUsed]; ok && ch.Enabled {
		return ch.Phone, nil
	}
	for _, ch := range r.channels {
		if ch.Enabled {
			return ch.Phone, nil
		}
	}
	return "", ErrNoActiveChannel
}
