package harness

import (
	"github.com/roach88/craftgraph/internal/analysis"
	"github.com/roach88/craftgraph/internal/craft"
)

// Trace event types.
const (
	EventProbe = "probe" // an oracle call that recorded an edge
	EventFail  = "fail"  // a probe-local failure the loop skipped
	EventAbort = "abort" // the error that ended the loop
)

// TraceEvent is one entry of a run's trace.
type TraceEvent struct {
	Type string `json:"type"`

	// Seq is the probe sequence number. Zero for fail and abort events.
	Seq int64 `json:"seq,omitempty"`

	Pair   craft.Pair `json:"pair"`
	Result string     `json:"result,omitempty"`
	Glyph  string     `json:"glyph,omitempty"`
	Kind   string     `json:"kind,omitempty"`

	// Code is the runtime error code of a fail or abort event.
	Code string `json:"code,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when no assertion or analysis failed.
	Pass bool `json:"pass"`

	// Trace lists probes and failures in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion and analysis failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Discovered is the policy's discovered list after the run.
	Discovered []string `json:"discovered"`

	// Edges is the final edge log.
	Edges []craft.Edge `json:"edges"`

	Order  *analysis.Order       `json:"-"`
	Depths *analysis.DepthResult `json:"-"`

	// Build is the reconstruction of the scenario targets.
	Build []craft.Edge `json:"build,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Probes returns the probe events of the trace.
func (r *Result) Probes() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == EventProbe {
			out = append(out, ev)
		}
	}
	return out
}
