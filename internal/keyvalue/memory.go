package keyvalue

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	raw     []byte    // JSON-encoded value
	expires time.Time // zero means never
}

// MemoryBucket is a goroutine-safe in-memory BucketManager. Values are kept
// in the same JSON form BadgerBucket persists, so both read back alike.
// Expired entries are dropped lazily on read.
type MemoryBucket struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   Clock
}

// NewMemoryBucket creates an empty bucket. A nil clock uses wall time.
func NewMemoryBucket(clock Clock) *MemoryBucket {
	if clock == nil {
		clock = systemClock{}
	}
	return &MemoryBucket{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

// Get implements BucketManager.
func (b *MemoryBucket) Get(ctx context.Context, key any) (Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return Value{}, false, err
	}
	k, err := encodeKey(key)
	if err != nil {
		return Value{}, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[string(k)]
	if !ok {
		return Value{}, false, nil
	}
	if !e.expires.IsZero() && !b.clock.Now().Before(e.expires) {
		delete(b.entries, string(k))
		return Value{}, false, nil
	}
	v, err := decodeValue(e.raw)
	if err != nil {
		return Value{}, false, err
	}
	return ValueOf(v), true, nil
}

// Put implements BucketManager.
func (b *MemoryBucket) Put(ctx context.Context, key, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := encodeKey(key)
	if err != nil {
		return err
	}
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	e := memoryEntry{raw: raw}
	if ttl > 0 {
		e.expires = b.clock.Now().Add(ttl)
	}
	b.entries[string(k)] = e
	return nil
}

// Delete implements BucketManager.
func (b *MemoryBucket) Delete(ctx context.Context, key any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := encodeKey(key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, string(k))
	return nil
}
