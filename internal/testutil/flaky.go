package testutil

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/roach88/memimg/internal/memimg"
)

// ErrInjected is returned by FlakyLog for every failure it injects.
var ErrInjected = errors.New("injected log failure")

// FlakyLog wraps a log and fails appends on demand. Reads always pass
// through.
type FlakyLog struct {
	inner memimg.Log

	mu       sync.Mutex
	failNext int
	attempts int
}

var _ memimg.Log = (*FlakyLog)(nil)

// NewFlakyLog wraps inner. With no failures scheduled it behaves exactly
// like inner.
func NewFlakyLog(inner memimg.Log) *FlakyLog {
	return &FlakyLog{inner: inner}
}

// FailNext makes the next n appends return ErrInjected without reaching
// the wrapped log.
func (l *FlakyLog) FailNext(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = n
}

// Attempts returns how many appends were requested, failed or not.
func (l *FlakyLog) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

func (l *FlakyLog) Append(ctx context.Context, entry []byte) error {
	l.mu.Lock()
	l.attempts++
	fail := l.failNext > 0
	if fail {
		l.failNext--
	}
	l.mu.Unlock()

	if fail {
		return ErrInjected
	}
	return l.inner.Append(ctx, entry)
}

func (l *FlakyLog) ReadAll(ctx context.Context) iter.Seq2[[]byte, error] {
	return l.inner.ReadAll(ctx)
}
