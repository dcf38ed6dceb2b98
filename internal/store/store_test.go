package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/craftgraph/internal/craft"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"edges", "elements", "discoveries"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)

	_, err = Open("")
	assert.Error(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "2"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestOpenSeeded_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSeeded(path, testSeeds)
	require.NoError(t, err)
	require.NoError(t, s.AppendElement(ctx, craft.Element{Name: "Steam", Glyph: "💨"}))
	s.Close()

	s, err = OpenSeeded(path, testSeeds)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Elements, 5)
	assert.Equal(t, "Water", snap.Elements[0].Name)
	assert.Equal(t, "Steam", snap.Elements[4].Name)
}

func TestWriteEdge_FirstAnswerWins(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	inserted, err := s.WriteEdge(ctx, craft.NewEdge("Fire", "Water", "Steam"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.WriteEdge(ctx, craft.NewEdge("Water", "Fire", "Mist"))
	require.NoError(t, err)
	assert.False(t, inserted, "second write for the same unordered pair must be ignored")

	result, ok, err := s.LookupEdge(ctx, craft.NewPair("Water", "Fire"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Steam", result)

	n, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteEdge_CanonicalizesInputs(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	// Deliberately non-canonical; the CHECK constraint would reject it raw.
	_, err := s.WriteEdge(ctx, craft.Edge{A: "Water", B: "Fire", Result: "Steam"})
	require.NoError(t, err)

	edges, err := s.LookupProducers(ctx, "Steam")
	require.NoError(t, err)
	assert.Equal(t, []craft.Edge{{A: "Fire", B: "Water", Result: "Steam"}}, edges)
}

func TestLookupEdge_Missing(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.LookupEdge(context.Background(), craft.NewPair("Fire", "Fire"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplay_PreservesAppendOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	edges := []craft.Edge{
		craft.NewEdge("Water", "Fire", "Steam"),
		craft.NewEdge("Steam", "Steam", "Cloud"),
		craft.NewEdge("Cloud", "Water", "Rain"),
		craft.NewEdge("Earth", "Rain", "Plant"),
	}
	for _, e := range edges {
		require.NoError(t, s.AppendEdge(ctx, e))
	}
	d := craft.Discovery{
		Pair:   craft.NewPair("Cloud", "Water"),
		Answer: craft.Combination{Result: "Rain", Emoji: "🌧️", IsNew: true},
	}
	require.NoError(t, s.AppendDiscovery(ctx, d))

	snap, err := s.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, edges, snap.Edges)
	assert.Equal(t, []craft.Discovery{d}, snap.Discoveries)
	assert.Zero(t, snap.Skipped)
}

func TestLookupProducers_OrderedBySeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.AppendEdge(ctx, craft.NewEdge("Water", "Fire", "Steam")))
	require.NoError(t, s.AppendEdge(ctx, craft.NewEdge("Water", "Lava", "Steam")))
	require.NoError(t, s.AppendEdge(ctx, craft.NewEdge("Steam", "Steam", "Cloud")))

	edges, err := s.LookupProducers(ctx, "Steam")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "Fire", edges[0].A)
	assert.Equal(t, "Lava", edges[1].A)
}
