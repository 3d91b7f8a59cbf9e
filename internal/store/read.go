package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/roach88/memimg/internal/canonical"
)

// ErrChecksumMismatch is yielded by ReadAll for a row whose stored checksum
// does not match its entry.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ReadAll yields every entry ordered by seq. The first error ends the
// sequence.
func (s *Store) ReadAll(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT seq, entry, checksum
			FROM entries
			ORDER BY seq ASC
		`)
		if err != nil {
			yield(nil, fmt.Errorf("query entries: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				seq      int64
				entry    []byte
				checksum string
			)
			if err := rows.Scan(&seq, &entry, &checksum); err != nil {
				yield(nil, fmt.Errorf("scan entry: %w", err))
				return
			}
			if got := canonical.Checksum(canonical.DomainLogEntry, entry); got != checksum {
				yield(nil, fmt.Errorf("entry seq %d: %w", seq, ErrChecksumMismatch))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate entries: %w", err))
		}
	}
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// LastSeq returns the highest seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM entries`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq.Int64, nil
}
