// Package filelog stores log entries in a plain text file, one per line.
package filelog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/memimg/internal/memimg"
)

// maxLine bounds a single entry on read.
const maxLine = 4 << 20

// ErrMultiline is returned by Append for an entry containing a line break.
var ErrMultiline = errors.New("entry contains a newline")

var _ memimg.Log = (*Log)(nil)

// Log is an append-only file of newline-terminated entries.
// Every Append is synced to disk before it returns. A failed Append
// truncates the file back to where it started, so a torn write never
// prefixes the next entry.
type Log struct {
	path string

	mu sync.Mutex
	w  *os.File

	// writeLine is replaced in tests to simulate short writes.
	writeLine func(f *os.File, line []byte) (int, error)
}

// Open prepares a file log at path, creating its parent directory.
// The file itself is created on first Append.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("open file log: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &Log{path: path}, nil
}

// Path returns the file the log writes to.
func (l *Log) Path() string {
	return l.path
}

// Append writes entry followed by a newline and fsyncs the file.
func (l *Log) Append(ctx context.Context, entry []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bytes.ContainsAny(entry, "\r\n") {
		return ErrMultiline
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log for append: %w", err)
		}
		l.w = f
	}

	info, err := l.w.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	offset := info.Size()

	// An unterminated last line gets its newline before the new entry.
	fence, err := l.unterminated(offset)
	if err != nil {
		return err
	}

	line := make([]byte, 0, len(entry)+2)
	if fence {
		line = append(line, '\n')
	}
	line = append(line, entry...)
	line = append(line, '\n')

	write := l.writeLine
	if write == nil {
		write = (*os.File).Write
	}
	if _, err := write(l.w, line); err != nil {
		return l.rollback(offset, fmt.Errorf("write entry: %w", err))
	}
	if err := l.w.Sync(); err != nil {
		return l.rollback(offset, fmt.Errorf("sync log: %w", err))
	}
	return nil
}

func (l *Log) unterminated(size int64) (bool, error) {
	if size == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := l.w.ReadAt(last, size-1); err != nil {
		return false, fmt.Errorf("read log tail: %w", err)
	}
	return last[0] != '\n', nil
}

// rollback drops whatever part of a failed append reached the file.
func (l *Log) rollback(offset int64, cause error) error {
	if err := l.w.Truncate(offset); err != nil {
		return errors.Join(cause, fmt.Errorf("truncate torn entry: %w", err))
	}
	return cause
}

// ReadAll yields every non-blank line in file order. A missing file is an
// empty log. Read errors are yielded once and end the sequence.
func (l *Log) ReadAll(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		f, err := os.Open(l.path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("open log: %w", err))
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			line := bytes.TrimRight(scanner.Bytes(), "\r")
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			if !yield(bytes.Clone(line), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("read log: %w", err))
		}
	}
}

// Close releases the append handle, if one was opened.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Close()
	l.w = nil
	return err
}
