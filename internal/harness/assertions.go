package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/craftgraph/internal/craft"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", formatEvent(ev))
		}
	}

	return buf.String()
}

// evaluate runs one assertion against a result.
func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertDiscovered:
		return assertDiscovered(r, a)
	case AssertProbeCount:
		return assertProbeCount(r, a)
	case AssertTraceContains:
		return assertTraceContains(r, a)
	case AssertTraceOrder:
		return assertTraceOrder(r, a)
	case AssertDepth:
		return assertDepth(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertDiscovered(r *Result, a Assertion) error {
	var missing []string
	for _, name := range a.Elements {
		if !slices.Contains(r.Discovered, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertDiscovered,
		Expected: fmt.Sprintf("discovered %v", a.Elements),
		Actual:   fmt.Sprintf("missing %v from %v", missing, r.Discovered),
	}
}

func assertProbeCount(r *Result, a Assertion) error {
	count := 0
	for _, ev := range r.Probes() {
		if a.Kind == "" || ev.Kind == a.Kind {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	what := "probes"
	if a.Kind != "" {
		what = a.Kind + " probes"
	}
	return &AssertionError{
		Type:     AssertProbeCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Trace:    r.Trace,
	}
}

// assertTraceContains checks that some probe answered the pair with the
// expected result. The pair is matched in either order.
func assertTraceContains(r *Result, a Assertion) error {
	want := craft.NewPair(a.Pair[0], a.Pair[1])
	for _, ev := range r.Probes() {
		if ev.Pair == want && ev.Result == a.Result {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("probe %s = %s", want, a.Result),
		Actual:   "not found in trace",
		Trace:    r.Trace,
	}
}

// assertTraceOrder checks that results first appear in the given order.
// Intervening probes are allowed.
func assertTraceOrder(r *Result, a Assertion) error {
	first := make(map[string]int)
	for i, ev := range r.Probes() {
		if _, ok := first[ev.Result]; !ok {
			first[ev.Result] = i
		}
	}

	last := -1
	for _, name := range a.Elements {
		pos, ok := first[name]
		if !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("results in order %v", a.Elements),
				Actual:   fmt.Sprintf("%s never produced", name),
				Trace:    r.Trace,
			}
		}
		if pos < last {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("results in order %v", a.Elements),
				Actual:   fmt.Sprintf("%s produced out of order", name),
				Trace:    r.Trace,
			}
		}
		last = pos
	}
	return nil
}

// assertDepth checks one element's depth. A depth of -1 expects the
// element to be unreachable from the seeds.
func assertDepth(r *Result, a Assertion) error {
	if r.Depths == nil {
		return &AssertionError{
			Type:     AssertDepth,
			Expected: fmt.Sprintf("depth(%s) = %d", a.Element, a.Depth),
			Actual:   "depths could not be computed",
		}
	}

	got, ok := r.Depths.Depth(a.Element)
	if !ok {
		got = -1
	}
	if got == a.Depth {
		return nil
	}
	return &AssertionError{
		Type:     AssertDepth,
		Expected: fmt.Sprintf("depth(%s) = %d", a.Element, a.Depth),
		Actual:   fmt.Sprintf("depth(%s) = %d", a.Element, got),
	}
}
