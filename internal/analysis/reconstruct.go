package analysis

import (
	"fmt"

	"github.com/roach88/craftgraph/internal/craft"
)

// frame is one element on the reconstruction stack. next counts how many of
// its two inputs have been pushed.
type frame struct {
	name string
	next int
}

// reconstructor holds the state shared across all targets of one call.
type reconstructor struct {
	producer map[string]craft.Edge
	seeds    map[string]bool
	seen     map[string]bool
	onStack  map[string]bool
	out      []craft.Edge
}

// Reconstruct returns the edges needed to build every target, each edge
// after the edges that build its inputs, with no edge repeated.
//
// Each element's producer is the first edge in edges that yields it,
// ignoring edges where the result is also an input. Seeds and elements
// without a producer are leaves. Targets are processed in the order given
// and share one seen set, so common dependencies are emitted once.
//
// A target that is neither a seed nor produced by any edge fails with
// ErrUnknownTarget. A producer chain that loops back on itself fails with
// an IntegrityError.
func Reconstruct(edges []craft.Edge, seeds []string, targets []string) ([]craft.Edge, error) {
	r := &reconstructor{
		producer: make(map[string]craft.Edge, len(edges)),
		seeds:    make(map[string]bool, len(seeds)),
		seen:     make(map[string]bool),
		onStack:  make(map[string]bool),
	}
	for _, s := range seeds {
		r.seeds[s] = true
	}
	for _, e := range edges {
		if e.Result == e.A || e.Result == e.B {
			continue
		}
		if _, ok := r.producer[e.Result]; !ok {
			r.producer[e.Result] = e
		}
	}

	for _, t := range targets {
		if _, ok := r.producer[t]; !ok && !r.seeds[t] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, t)
		}
		if r.seen[t] {
			continue
		}
		if err := r.visit(t); err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

// visit emits the build sequence of target depth-first, inputs before the
// edge that uses them, with an explicit stack.
func (r *reconstructor) visit(target string) error {
	r.seen[target] = true
	r.onStack[target] = true
	stack := []frame{{name: target}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		e, ok := r.producer[top.name]
		if !ok || r.seeds[top.name] {
			r.pop(&stack)
			continue
		}

		if top.next < 2 {
			in := e.A
			if top.next == 1 {
				in = e.B
			}
			top.next++

			if r.onStack[in] {
				return &IntegrityError{
					Kind:    IntegrityCycle,
					Element: in,
					Detail:  fmt.Sprintf("%s needs %s, which is still being built", e, in),
				}
			}
			if !r.seen[in] {
				r.seen[in] = true
				r.onStack[in] = true
				stack = append(stack, frame{name: in})
			}
			continue
		}

		r.out = append(r.out, craft.NewEdge(e.A, e.B, e.Result))
		r.pop(&stack)
	}
	return nil
}

func (r *reconstructor) pop(stack *[]frame) {
	s := *stack
	delete(r.onStack, s[len(s)-1].name)
	*stack = s[:len(s)-1]
}
