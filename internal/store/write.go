package store

import (
	"context"
	"fmt"

	"github.com/roach88/memimg/internal/canonical"
)

// Append inserts entry as the next row. The row is committed when Append
// returns nil.
func (s *Store) Append(ctx context.Context, entry []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (entry, checksum) VALUES (?, ?)
	`,
		entry,
		canonical.Checksum(canonical.DomainLogEntry, entry),
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}
