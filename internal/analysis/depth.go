package analysis

import (
	"fmt"

	"github.com/roach88/craftgraph/internal/craft"
)

// DepthResult is the outcome of SolveDepths.
type DepthResult struct {
	// Depths maps every reachable element to its minimum depth. Seeds are 0.
	// Elements that cannot be built from the seeds are absent.
	Depths map[string]int

	// Witnesses holds one minimal-depth producing edge per derived element,
	// the first such edge in log order, listed in log order.
	Witnesses []craft.Edge

	// Passes is the number of relaxation passes, the final quiet one included.
	Passes int
}

// Depth returns the depth of name and whether it is reachable.
func (r *DepthResult) Depth(name string) (int, bool) {
	d, ok := r.Depths[name]
	return d, ok
}

// DepthOption configures SolveDepths.
type DepthOption func(*depthOptions)

type depthOptions struct {
	maxPasses int
}

// WithMaxPasses overrides the pass bound. The default is one pass per
// distinct element plus the final quiet pass.
func WithMaxPasses(n int) DepthOption {
	return func(o *depthOptions) {
		o.maxPasses = n
	}
}

// SolveDepths computes the minimum combination depth of every element.
//
// Seeds start at 0 and every other element at infinity. Each pass relaxes
// every edge in log order, lowering depth(c) to max(depth(a), depth(b)) + 1
// when that is smaller. Passes repeat until one makes no improvement. Not
// reaching that fixed point within the pass bound is an IntegrityError.
func SolveDepths(edges []craft.Edge, seeds []string, opts ...DepthOption) (*DepthResult, error) {
	depths := make(map[string]int, len(seeds))
	for _, s := range seeds {
		depths[s] = 0
	}

	var o depthOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxPasses <= 0 {
		o.maxPasses = countElements(edges, seeds) + 1
	}

	res := &DepthResult{Depths: depths}
	for {
		if res.Passes >= o.maxPasses {
			return nil, &IntegrityError{
				Kind:   IntegrityNonConvergence,
				Detail: fmt.Sprintf("no fixed point after %d passes", res.Passes),
			}
		}
		res.Passes++

		improved := 0
		for _, e := range edges {
			d, ok := candidate(depths, e)
			if !ok {
				continue
			}
			if cur, known := depths[e.Result]; !known || d < cur {
				depths[e.Result] = d
				improved++
			}
		}
		if improved == 0 {
			break
		}
	}

	witnessed := make(map[string]bool)
	for _, e := range edges {
		d, ok := candidate(depths, e)
		if !ok || witnessed[e.Result] || depths[e.Result] != d {
			continue
		}
		witnessed[e.Result] = true
		res.Witnesses = append(res.Witnesses, craft.NewEdge(e.A, e.B, e.Result))
	}
	return res, nil
}

// candidate is the depth e would give its result, if both inputs are
// reachable.
func candidate(depths map[string]int, e craft.Edge) (int, bool) {
	da, okA := depths[e.A]
	db, okB := depths[e.B]
	if !okA || !okB {
		return 0, false
	}
	return max(da, db) + 1, true
}

func countElements(edges []craft.Edge, seeds []string) int {
	names := make(map[string]struct{}, len(seeds)+len(edges))
	for _, s := range seeds {
		names[s] = struct{}{}
	}
	for _, e := range edges {
		names[e.A] = struct{}{}
		names[e.B] = struct{}{}
		names[e.Result] = struct{}{}
	}
	return len(names)
}
