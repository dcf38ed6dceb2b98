package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/oracle"
	"github.com/roach88/craftgraph/internal/store"
	"github.com/roach88/craftgraph/internal/testutil"
)

var testSeeds = []craft.Element{
	{Name: "Water", Glyph: "💧"},
	{Name: "Fire", Glyph: "🔥"},
	{Name: "Wind", Glyph: "🌬️"},
	{Name: "Earth", Glyph: "🌍"},
}

// newTestDriver opens a seeded file log holding edges and builds a driver
// over it that never sleeps.
func newTestDriver(t *testing.T, o oracle.Client, edges []craft.Edge, opts ...DriverOption) (*Driver, *store.FileLog) {
	t.Helper()
	ctx := context.Background()

	l, err := store.OpenFileLog(t.TempDir(), testSeeds, false)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	for _, e := range edges {
		require.NoError(t, l.AppendEdge(ctx, e))
	}
	snap, err := l.Replay(ctx)
	require.NoError(t, err)

	opts = append([]DriverOption{WithSleeper(testutil.NoSleep)}, opts...)
	return NewDriver(l, o, snap, opts...), l
}

// scriptResolver answers from a fixed table and records every call with
// its arguments in the order given. Unknown pairs fail probe-locally.
type scriptResolver struct {
	results map[craft.Pair]string
	calls   []Request
	onCall  func(n int)
	err     error
}

func newScriptResolver(triples ...[3]string) *scriptResolver {
	r := &scriptResolver{results: make(map[craft.Pair]string)}
	for _, tr := range triples {
		r.results[craft.NewPair(tr[0], tr[1])] = tr[2]
	}
	return r
}

func (r *scriptResolver) Resolve(_ context.Context, a, b string) (string, error) {
	r.calls = append(r.calls, Request{First: a, Second: b})
	if r.onCall != nil {
		r.onCall(len(r.calls))
	}
	if r.err != nil {
		return "", r.err
	}
	res, ok := r.results[craft.NewPair(a, b)]
	if !ok {
		return "", &RuntimeError{Code: ErrCodeProbeFailed, Message: "unscripted", Pair: a + " + " + b}
	}
	return res, nil
}

func seedNames() []string {
	names := make([]string, len(testSeeds))
	for i, s := range testSeeds {
		names[i] = s.Name
	}
	return names
}
