package cli

import (
	"context"
	"fmt"

	"github.com/roach88/memimg/internal/config"
	"github.com/roach88/memimg/internal/filelog"
	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
	"github.com/roach88/memimg/internal/store"
)

// backend is an open command log selected by configuration.
type backend struct {
	name  string
	path  string
	log   memimg.Log
	close func() error
	opts  *RootOptions
}

// openBackend opens the configured log. Callers must call close.
func openBackend(opts *RootOptions) (*backend, error) {
	cfg := opts.Config.Log
	b := &backend{name: cfg.Backend, path: cfg.Path, opts: opts}

	switch cfg.Backend {
	case config.BackendFile:
		fl, err := filelog.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		b.log, b.close = fl, fl.Close
	case config.BackendSQLite:
		st, err := store.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		b.log, b.close = st, st.Close
	case config.BackendMemory:
		b.path = ""
		b.log, b.close = memimg.NewMemoryLog(), func() error { return nil }
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}

	opts.Logger.Debug("log opened", "backend", b.name, "path", b.path)
	return b, nil
}

// openLedger replays the log into a fresh ledger.
func (b *backend) openLedger(ctx context.Context) (*memimg.Processor[*ledger.Ledger], error) {
	return memimg.Open(ctx, ledger.New(), b.log, ledger.NewCodec(),
		memimg.WithLogger(b.opts.Logger),
		memimg.WithRecorder(b.opts.Recorder),
	)
}

// count returns the number of stored entries.
func (b *backend) count(ctx context.Context) (int64, error) {
	if c, ok := b.log.(interface {
		Count(context.Context) (int64, error)
	}); ok {
		return c.Count(ctx)
	}

	var n int64
	for _, err := range b.log.ReadAll(ctx) {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// session opens the backend and replays it, reporting failures through f.
// On success the caller must call b.close.
func session(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*backend, *memimg.Processor[*ledger.Ledger], error) {
	b, err := openBackend(opts)
	if err != nil {
		return nil, nil, f.Fail(CodePersistence, ExitCommandError, fmt.Errorf("open %s log: %w", opts.Config.Log.Backend, err))
	}

	p, err := b.openLedger(ctx)
	if err != nil {
		b.close()
		return nil, nil, f.FailProcessor(err)
	}
	return b, p, nil
}
