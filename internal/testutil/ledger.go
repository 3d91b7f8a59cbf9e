package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenLedger replays log into a fresh ledger processor, failing the test
// if replay fails.
func OpenLedger(t testing.TB, log memimg.Log, opts ...memimg.Option) *memimg.Processor[*ledger.Ledger] {
	t.Helper()
	opts = append([]memimg.Option{memimg.WithLogger(DiscardLogger())}, opts...)
	p, err := memimg.Open(context.Background(), ledger.New(), log, ledger.NewCodec(), opts...)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return p
}

// EncodeHistory encodes cmds with the ledger codec, failing the test on
// the first error. The result can seed memimg.NewMemoryLog or be appended
// to any backend.
func EncodeHistory(t testing.TB, cmds ...ledger.Command) [][]byte {
	t.Helper()
	codec := ledger.NewCodec()
	entries := make([][]byte, 0, len(cmds))
	for _, cmd := range cmds {
		entry, err := codec.Encode(cmd)
		if err != nil {
			t.Fatalf("encode %s: %v", cmd.CommandType(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// AliceHistory is a short valid history: a1/Alice opened and credited 100.
func AliceHistory() []ledger.Command {
	return []ledger.Command{
		ledger.NewCreateAccount("a1", "Alice"),
		ledger.NewDeposit("a1", 100),
	}
}
