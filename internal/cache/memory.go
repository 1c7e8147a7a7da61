package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend is a process-local Backend on top of go-cache.
type MemoryBackend struct {
	items *gocache.Cache
}

// NewMemoryBackend creates a MemoryBackend that purges expired keys every
// cleanupInterval. Expiry on read is handled by go-cache itself.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	return &MemoryBackend{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get returns a copy of the stored bytes.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	v, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	stored, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(stored))
	copy(out, stored)
	return out, true, nil
}

// Set stores a copy of value.
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.items.Set(key, stored, ttl)
	return nil
}

// Delete removes key; deleting a missing key is not an error.
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.items.Delete(key)
	return nil
}

// Close is a no-op.
func (m *MemoryBackend) Close() error {
	return nil
}
