package memimg

import (
	"bytes"
	"context"
	"iter"
	"sync"
)

// MemoryLog is a Log held in process memory. It is not durable; it exists
// for tests and throwaway sessions.
type MemoryLog struct {
	mu      sync.Mutex
	entries [][]byte
}

// NewMemoryLog creates a log preloaded with entries (copied).
func NewMemoryLog(entries ...[]byte) *MemoryLog {
	l := &MemoryLog{}
	for _, e := range entries {
		l.entries = append(l.entries, bytes.Clone(e))
	}
	return l
}

// Append stores a copy of entry.
func (l *MemoryLog) Append(ctx context.Context, entry []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, bytes.Clone(entry))
	return nil
}

// ReadAll yields the entries present when iteration starts.
func (l *MemoryLog) ReadAll(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, e := range l.Entries() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Entries returns a copy of all stored entries in append order.
func (l *MemoryLog) Entries() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.entries))
	for i, e := range l.entries {
		out[i] = bytes.Clone(e)
	}
	return out
}

// Len returns the number of stored entries.
func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
