package testutil

import (
	"context"
	"sync"

	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/oracle"
)

// ScriptedOracle is an oracle.Client answering from a fixed script.
//
// Unscripted pairs fail with a 404 *oracle.StatusError, which the engine
// treats as a probe-local failure. Every call is recorded in order.
//
// Thread-safety: all methods are safe for concurrent use.
type ScriptedOracle struct {
	mu      sync.Mutex
	answers map[craft.Pair]craft.Combination
	errs    map[craft.Pair]error
	calls   []craft.Pair
}

var _ oracle.Client = (*ScriptedOracle)(nil)

// NewScriptedOracle creates an oracle with an empty script.
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{
		answers: make(map[craft.Pair]craft.Combination),
		errs:    make(map[craft.Pair]error),
	}
}

// Answer scripts a + b = result.
func (o *ScriptedOracle) Answer(a, b, result, emoji string, isNew bool) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answers[craft.NewPair(a, b)] = craft.Combination{Result: result, Emoji: emoji, IsNew: isNew}
	return o
}

// Fail scripts an error for a + b.
func (o *ScriptedOracle) Fail(a, b string, err error) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[craft.NewPair(a, b)] = err
	return o
}

// Combine implements oracle.Client.
func (o *ScriptedOracle) Combine(_ context.Context, p craft.Pair) (craft.Combination, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls = append(o.calls, p)
	if err, ok := o.errs[p]; ok {
		return craft.Combination{}, err
	}
	if comb, ok := o.answers[p]; ok {
		return comb, nil
	}
	return craft.Combination{}, &oracle.StatusError{Pair: p, Code: 404, Body: "unscripted pair"}
}

// Calls returns the pairs asked so far, in call order.
func (o *ScriptedOracle) Calls() []craft.Pair {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]craft.Pair, len(o.calls))
	copy(out, o.calls)
	return out
}

// CallCount returns the number of Combine calls.
func (o *ScriptedOracle) CallCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}
