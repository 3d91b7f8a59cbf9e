package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out predictable account IDs ("acc-0001", "acc-0002",
// ...) in place of random UUIDs, so CLI output can be compared verbatim.
//
// Thread-safety: All methods are safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs returns a generator using prefix. An empty prefix
// becomes "acc".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "acc"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next ID. The first call returns prefix-0001.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset makes the next call to Next start over at 0001.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
