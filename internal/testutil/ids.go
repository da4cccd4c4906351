package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator generates predictable statement ids.
//
// This enables deterministic log and golden output: the same test produces
// stmt-0001, stmt-0002, ... on every run.
//
// Implements engine.IDGenerator.
//
// Thread-safety: Generate is safe for concurrent use.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialIDGenerator creates a generator. An empty prefix uses "stmt".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "stmt"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%04d", g.prefix, g.next)
}
