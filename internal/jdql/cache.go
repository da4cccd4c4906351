package jdql

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes values by key with compute-once semantics: concurrent
// callers asking for the same missing key wait for a single computation.
// Failed computations are not stored, so the next caller retries.
//
// The default store never evicts. NewBoundedCache keeps at most n entries,
// evicting the least recently used.
type Cache[T any] struct {
	mu      sync.Mutex
	entries entryStore[T]
}

type entry[T any] struct {
	done chan struct{}
	val  T
	err  error
}

type entryStore[T any] interface {
	Get(key string) (*entry[T], bool)
	Add(key string, e *entry[T])
	Remove(key string)
	Len() int
}

// NewCache creates an unbounded cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: mapStore[T]{}}
}

// NewBoundedCache creates a cache holding at most size entries. A size of
// zero or less yields an unbounded cache.
func NewBoundedCache[T any](size int) (*Cache[T], error) {
	if size <= 0 {
		return NewCache[T](), nil
	}
	l, err := lru.New[string, *entry[T]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[T]{entries: lruStore[T]{l}}, nil
}

// Get returns the value stored for key, computing it with fn on a miss.
func (c *Cache[T]) Get(key string, fn func() (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries.Get(key); ok {
		c.mu.Unlock()
		<-e.done
		return e.val, e.err
	}
	e := &entry[T]{done: make(chan struct{})}
	c.entries.Add(key, e)
	c.mu.Unlock()

	e.val, e.err = fn()
	if e.err != nil {
		c.mu.Lock()
		if cur, ok := c.entries.Get(key); ok && cur == e {
			c.entries.Remove(key)
		}
		c.mu.Unlock()
	}
	close(e.done)
	return e.val, e.err
}

// Len returns the number of stored entries, in-flight ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

type mapStore[T any] map[string]*entry[T]

func (m mapStore[T]) Get(key string) (*entry[T], bool) {
	e, ok := m[key]
	return e, ok
}

func (m mapStore[T]) Add(key string, e *entry[T]) { m[key] = e }
func (m mapStore[T]) Remove(key string)           { delete(m, key) }
func (m mapStore[T]) Len() int                    { return len(m) }

type lruStore[T any] struct {
	l *lru.Cache[string, *entry[T]]
}

func (s lruStore[T]) Get(key string) (*entry[T], bool) { return s.l.Get(key) }
func (s lruStore[T]) Add(key string, e *entry[T])      { s.l.Add(key, e) }
func (s lruStore[T]) Remove(key string)                { s.l.Remove(key) }
func (s lruStore[T]) Len() int                         { return s.l.Len() }
