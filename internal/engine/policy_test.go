package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatedDoubling_FixedPointOnFirstCall(t *testing.T) {
	r := newScriptResolver([3]string{"Water", "Water", "Water"})
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.RepeatedDoubling(context.Background(), "Water"))

	assert.Len(t, r.calls, 1)
	assert.Equal(t, []string{"Water"}, p.DoublingVisited())
}

func TestRepeatedDoubling_StopsOnCycle(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Fire", "Fire", "Sun"},
		[3]string{"Sun", "Sun", "Star"},
		[3]string{"Star", "Star", "Fire"},
	)
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.RepeatedDoubling(context.Background(), "Fire"))

	assert.Equal(t, []Request{{"Fire", "Fire"}, {"Sun", "Sun"}, {"Star", "Star"}}, r.calls)
	assert.Equal(t, []string{"Fire", "Sun", "Star"}, p.DoublingVisited())
	assert.Equal(t, append(seedNames(), "Sun", "Star"), p.Discovered())

	// Already doubled: nothing to do.
	require.NoError(t, p.RepeatedDoubling(context.Background(), "Sun"))
	assert.Len(t, r.calls, 3)
}

func TestRepeatedDoubling_StopsOnDigit(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Wind", "Wind", "Tornado"},
		[3]string{"Tornado", "Tornado", "2 Tornadoes"},
		[3]string{"2 Tornadoes", "2 Tornadoes", "4 Tornadoes"},
	)
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.RepeatedDoubling(context.Background(), "Wind"))

	assert.Len(t, r.calls, 2)
	assert.Contains(t, p.Discovered(), "2 Tornadoes")
	assert.NotContains(t, p.DoublingVisited(), "2 Tornadoes")
}

func TestRepeatedDoubling_CustomStop(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Wind", "Wind", "Tornado"},
		[3]string{"Tornado", "Tornado", "Tornado"},
	)
	p := NewPolicy(r, seedNames(), WithDoublingStop(func(s string) bool { return s == "Tornado" }))

	require.NoError(t, p.RepeatedDoubling(context.Background(), "Wind"))
	assert.Len(t, r.calls, 1)
}

func TestRepeatedAddition_TerminatesOnRepeat(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Steam", "Water", "Cloud"},
		[3]string{"Cloud", "Cloud", "Cloud"},
		[3]string{"Cloud", "Water", "Rain"},
		[3]string{"Rain", "Rain", "Rain"},
		[3]string{"Rain", "Water", "Rain"},
	)
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.RepeatedAddition(context.Background(), "Steam", "Water"))

	assert.Equal(t, []Request{
		{"Steam", "Water"},
		{"Cloud", "Cloud"},
		{"Cloud", "Water"},
		{"Rain", "Rain"},
		{"Rain", "Water"},
	}, r.calls)
	assert.Equal(t, 3, p.AdditionVisited())
	assert.Equal(t, append(seedNames(), "Cloud", "Rain"), p.Discovered())
}

func TestRepeatedAddition_StopsEarlyOnDisqualified(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Two Hundred", "1", "Three"},
		[3]string{"Three", "Three", "6"},
	)
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.RepeatedAddition(context.Background(), "Two Hundred", "1"))

	assert.Equal(t, []Request{{"Two Hundred", "1"}, {"Three", "Three"}}, r.calls)
}

func TestExplore_FollowsUp(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Fire", "Water", "Steam"},
		[3]string{"Steam", "Steam", "Steam"},
		[3]string{"Steam", "Water", "Steam"},
		[3]string{"Fire", "Steam", "Steam"},
	)
	p := NewPolicy(r, []string{"Fire", "Water"})

	require.NoError(t, p.Explore(context.Background(), "Fire", "Water"))

	assert.Equal(t, []Request{
		{"Fire", "Water"},
		{"Steam", "Steam"},
		{"Steam", "Water"},
		{"Steam", "Fire"},
	}, r.calls)
	assert.Equal(t, []string{"Fire", "Water", "Steam"}, p.Discovered())
}

func TestExplore_ResultEqualsInput(t *testing.T) {
	r := newScriptResolver([3]string{"Fire", "Water", "Water"})
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.Explore(context.Background(), "Fire", "Water"))
	assert.Len(t, r.calls, 1, "no follow-up when the result is an input")
}

func TestExplore_SameElementDelegatesToDoubling(t *testing.T) {
	r := newScriptResolver([3]string{"Earth", "Earth", "Earth"})
	p := NewPolicy(r, seedNames())

	require.NoError(t, p.Explore(context.Background(), "Earth", "Earth"))
	assert.Equal(t, []Request{{"Earth", "Earth"}}, r.calls)
	assert.Equal(t, []string{"Earth"}, p.DoublingVisited())
}

func TestExplore_Preempted(t *testing.T) {
	r := newScriptResolver([3]string{"Fire", "Water", "Steam"})
	p := NewPolicy(r, seedNames())
	p.preempt = func() bool { return true }

	require.NoError(t, p.Explore(context.Background(), "Fire", "Water"))
	assert.Empty(t, r.calls)
}

func TestExplore_Interrupted(t *testing.T) {
	r := newScriptResolver([3]string{"Fire", "Water", "Steam"})
	p := NewPolicy(r, seedNames())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Explore(ctx, "Fire", "Water")
	assert.True(t, IsInterrupted(err))
	assert.Empty(t, r.calls)
}

func TestExplore_PropagatesErrors(t *testing.T) {
	r := newScriptResolver()
	p := NewPolicy(r, seedNames())

	err := p.Explore(context.Background(), "Fire", "Water")
	assert.True(t, IsProbeLocal(err))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name    string
		digit   bool
		numeric bool
	}{
		{"Steam", false, false},
		{"2 Tornadoes", true, true},
		{"One", false, false},
		{"Two Hundred", false, true},
		{"one ONE", false, true},
		{"Someone Tense", false, false},
		{"Ten Commandments", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.digit, ContainsDigit(tt.name))
			assert.Equal(t, tt.numeric, LooksNumeric(tt.name))
		})
	}
	assert.False(t, Never("42"))
}

func TestLookupPredicate(t *testing.T) {
	p, ok := LookupPredicate(PredicateDigit)
	require.True(t, ok)
	assert.True(t, p("2 Tornadoes"))
	assert.False(t, p("Two Hundred"))

	p, ok = LookupPredicate(PredicateNumeric)
	require.True(t, ok)
	assert.True(t, p("Two Hundred"))

	p, ok = LookupPredicate(PredicateNever)
	require.True(t, ok)
	assert.False(t, p("42"))

	_, ok = LookupPredicate("prime")
	assert.False(t, ok)
}

func TestPolicy_NeverStopDoublesPastDigits(t *testing.T) {
	r := newScriptResolver(
		[3]string{"Fire", "Fire", "2 Fires"},
		[3]string{"2 Fires", "2 Fires", "2 Fires"},
	)

	p := NewPolicy(r, seedNames())
	require.NoError(t, p.RepeatedDoubling(context.Background(), "Fire"))
	assert.Len(t, r.calls, 1)

	r.calls = nil
	p = NewPolicy(r, seedNames(), WithDoublingStop(Never), WithDisqualified(Never))
	require.NoError(t, p.RepeatedDoubling(context.Background(), "Fire"))
	assert.Len(t, r.calls, 2)
	assert.Equal(t, []string{"Fire", "2 Fires"}, p.DoublingVisited())
	assert.False(t, p.Disqualified("2 Fires"))
}
