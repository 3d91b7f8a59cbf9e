package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// readAll collects every entry, failing the test on the first error.
func readAll(t *testing.T, s *Store) []string {
	t.Helper()
	var out []string
	for entry, err := range s.ReadAll(context.Background()) {
		if err != nil {
			t.Fatalf("ReadAll() failed: %v", err)
		}
		out = append(out, string(entry))
	}
	return out
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
