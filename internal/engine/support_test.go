package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/craftgraph/internal/craft"
)

func TestDedupCache_FirstAnswerWins(t *testing.T) {
	c := NewDedupCache([]craft.Edge{
		{A: "Fire", B: "Water", Result: "Steam"},
		{A: "Fire", B: "Water", Result: "Mist"},
	})

	got, ok := c.Lookup("Water", "Fire")
	require.True(t, ok)
	assert.Equal(t, "Steam", got)
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.Insert(craft.NewPair("Fire", "Water"), "Fog"))
	assert.True(t, c.Insert(craft.NewPair("Earth", "Water"), "Mud"))

	_, ok = c.Lookup("Earth", "Fire")
	assert.False(t, ok)
}

func TestDedupCache_NonCanonicalLogRecord(t *testing.T) {
	c := NewDedupCache([]craft.Edge{{A: "Water", B: "Fire", Result: "Steam"}})

	got, ok := c.Lookup("Fire", "Water")
	require.True(t, ok)
	assert.Equal(t, "Steam", got)
}

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()
	for i := range 3 {
		require.True(t, q.Enqueue(Request{First: fmt.Sprint(i), Second: "x"}))
	}
	assert.Equal(t, 3, q.Len())

	for i := range 3 {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprint(i), r.First)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestRequestQueue_Close(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(Request{First: "a", Second: "b"})
	q.Close()

	assert.False(t, q.Enqueue(Request{First: "c", Second: "d"}))
	r, ok := q.TryDequeue()
	require.True(t, ok, "queued requests survive Close")
	assert.Equal(t, "a", r.First)
}

func TestProbeBudget(t *testing.T) {
	b := NewProbeBudget(2)
	require.NoError(t, b.Check())
	require.NoError(t, b.Check())

	err := b.Check()
	require.Error(t, err)
	assert.True(t, IsBudgetError(err))
	assert.Contains(t, err.Error(), "2 >= 2")
	assert.Equal(t, 2, b.Used())
	assert.Equal(t, 2, b.Limit())

	unbounded := NewProbeBudget(0)
	for range 100 {
		require.NoError(t, unbounded.Check())
	}
}

func TestVisitedSet(t *testing.T) {
	v := newVisitedSet[additionKey]()
	v.Record(additionKey{"a", "b"})
	v.Record(additionKey{"a", "b"})
	v.Record(additionKey{"b", "a"})

	assert.True(t, v.Seen(additionKey{"a", "b"}))
	assert.True(t, v.Seen(additionKey{"b", "a"}))
	assert.False(t, v.Seen(additionKey{"a", "a"}))
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []additionKey{{"a", "b"}, {"b", "a"}}, v.Items())
}

func TestClock(t *testing.T) {
	c := NewClockAt(5)
	assert.Equal(t, int64(5), c.Current())
	assert.Equal(t, int64(6), c.Next())
}

func TestSessionGenerators(t *testing.T) {
	tok := UUIDv7Generator{}.Generate()
	assert.Len(t, tok, 36)
	assert.NotEqual(t, tok, UUIDv7Generator{}.Generate())

	g := NewFixedGenerator("s-1")
	assert.Equal(t, "s-1", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestRuntimeError(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &RuntimeError{
		Code:    ErrCodeDecodeFailed,
		Message: "bad answer",
		Pair:    "Fire + Water",
		Err:     cause,
	})

	assert.True(t, IsProbeLocal(err))
	assert.False(t, IsFatal(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrapped: DECODE_FAILED: bad answer (pair=Fire + Water): boom", err.Error())

	assert.True(t, IsInterrupted(NewInterruptedError(nil)))
	assert.False(t, IsProbeLocal(cause))
}
