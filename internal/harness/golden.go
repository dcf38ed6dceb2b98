package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Format writes the plain-text report of a run: the trace, the discovered
// list and the analyses. The output is deterministic for a given scenario
// and is what golden files hold.
func Format(w io.Writer, scenario *Scenario, r *Result) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&buf, "session: %s\n", scenario.Session)

	buf.WriteString("trace:\n")
	for _, ev := range r.Trace {
		fmt.Fprintf(&buf, "  %s\n", formatEvent(ev))
	}

	fmt.Fprintf(&buf, "discovered: %s\n", strings.Join(r.Discovered, ", "))

	buf.WriteString("order:\n")
	if r.Order != nil {
		for _, e := range r.Order.Edges {
			fmt.Fprintf(&buf, "  %s\n", e)
		}
	}

	buf.WriteString("depths:\n")
	if r.Depths != nil && r.Order != nil {
		for _, name := range r.Order.Elements {
			if d, ok := r.Depths.Depth(name); ok {
				fmt.Fprintf(&buf, "  %s: %d\n", name, d)
			}
		}
	}

	if len(r.Build) > 0 {
		buf.WriteString("reconstruct:\n")
		for _, e := range r.Build {
			fmt.Fprintf(&buf, "  %s\n", e)
		}
	}

	if len(r.Errors) > 0 {
		buf.WriteString("errors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&buf, "  %s\n", strings.ReplaceAll(strings.TrimSpace(e), "\n", "\n  "))
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// formatEvent renders one trace event on a single line.
func formatEvent(ev TraceEvent) string {
	switch ev.Type {
	case EventProbe:
		line := fmt.Sprintf("%d %s %s = %s", ev.Seq, ev.Kind, ev.Pair, ev.Result)
		if ev.Glyph != "" {
			line += " " + ev.Glyph
		}
		return line
	case EventFail:
		return fmt.Sprintf("- fail %s %s", ev.Pair, ev.Code)
	default:
		if ev.Pair.A == "" {
			return fmt.Sprintf("- %s %s", ev.Type, ev.Code)
		}
		return fmt.Sprintf("- %s %s %s", ev.Type, ev.Pair, ev.Code)
	}
}

// RunWithGolden executes a scenario and compares its report against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can make further assertions. Test failure
// (via goldie) occurs if the report doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the report of an already executed run against the
// golden file named after the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	var buf bytes.Buffer
	if err := Format(&buf, scenario, result); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, buf.Bytes())
	return nil
}
