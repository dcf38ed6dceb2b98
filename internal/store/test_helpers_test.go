package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/craftgraph/internal/craft"
)

var testSeeds = []craft.Element{
	{Name: "Water", Glyph: "💧"},
	{Name: "Fire", Glyph: "🔥"},
	{Name: "Wind", Glyph: "🌬️"},
	{Name: "Earth", Glyph: "🌍"},
}

// createTestStore creates a new SQLite store in a temp directory.
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

// createTestFileLog creates a seeded file log in a temp directory.
func createTestFileLog(t *testing.T) *FileLog {
	t.Helper()
	l, err := OpenFileLog(t.TempDir(), testSeeds, false)
	if err != nil {
		t.Fatalf("OpenFileLog() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}
