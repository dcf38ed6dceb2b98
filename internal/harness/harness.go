package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/craftgraph/internal/analysis"
	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/engine"
	"github.com/roach88/craftgraph/internal/oracle"
	"github.com/roach88/craftgraph/internal/store"
	"github.com/roach88/craftgraph/internal/testutil"
)

// Harness holds the wiring of one scenario run.
type Harness struct {
	store   *store.Store
	oracle  *testutil.ScriptedOracle
	driver  *engine.Driver
	session string
	logger  *slog.Logger
	result  *Result
}

// Option configures a run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger routes engine logs to l. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database seeded with the
// scenario seeds and pre-recorded edges. The real driver, policy and
// exploration loop run against the scripted oracle without any delay, so
// a run is deterministic for a given scenario.
//
// Execution flow:
// 1. Create and seed the in-memory log
// 2. Queue the scenario requests
// 3. Run the loop for the configured number of steps
// 4. Replay the log and run the analyses
// 5. Evaluate assertions
//
// Run returns an error only when the run itself could not be set up or the
// final log could not be read. Failed assertions and analyses are reported
// in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	seeds := make([]craft.Element, len(scenario.Seeds))
	for i, s := range scenario.Seeds {
		seeds[i] = craft.Element{Name: s.Name, Glyph: s.Glyph}
	}
	st, err := store.OpenSeeded(":memory:", seeds)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	for i, e := range scenario.Log {
		if err := st.AppendEdge(ctx, craft.NewEdge(e[0], e[1], e[2])); err != nil {
			return nil, fmt.Errorf("log[%d]: %w", i, err)
		}
	}
	snap, err := st.Replay(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to replay seeded log: %w", err)
	}

	session := engine.NewFixedGenerator(scenario.Session).Generate()
	h := &Harness{
		store:   st,
		oracle:  scriptOracle(scenario.Oracle),
		session: session,
		logger:  o.logger.With("session", session),
		result:  NewResult(),
	}

	h.driver = engine.NewDriver(st, h.oracle, snap,
		engine.WithSleeper(testutil.NoSleep),
		engine.WithDelay(0),
		engine.WithProbeLimit(scenario.MaxProbes),
		engine.WithLogger(h.logger),
		engine.WithProbeHook(h.onProbe),
	)

	policyOpts, err := scenario.PolicyOptions()
	if err != nil {
		return nil, err
	}
	policy := engine.NewPolicy(resolverFunc(h.resolve), scenario.SeedNames(), policyOpts...)
	explorerOpts := []engine.ExplorerOption{
		engine.WithMaxSteps(scenario.Steps),
		engine.WithExplorerLogger(h.logger),
	}
	if scenario.RandomSeed != 0 {
		explorerOpts = append(explorerOpts, engine.WithRandomSeed(scenario.RandomSeed))
	}
	explorer := engine.NewExplorer(policy, explorerOpts...)
	for _, r := range scenario.Requests {
		explorer.Submit(r[0], r[1])
	}

	if err := explorer.Run(ctx); err != nil {
		h.result.Trace = append(h.result.Trace, abortEvent(err))
	}
	h.result.Discovered = policy.Discovered()

	final, err := st.Replay(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to replay final log: %w", err)
	}
	h.analyze(scenario, final.Edges)

	for i, a := range scenario.Assertions {
		if err := evaluate(h.result, a); err != nil {
			h.result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"probes", h.driver.Probes(),
		"pass", h.result.Pass,
	)
	return h.result, nil
}

// resolverFunc adapts a function to engine.Resolver.
type resolverFunc func(ctx context.Context, a, b string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, a, b string) (string, error) {
	return f(ctx, a, b)
}

// resolve forwards to the driver and traces probe-local failures. Probes
// are traced by the driver hook.
func (h *Harness) resolve(ctx context.Context, a, b string) (string, error) {
	res, err := h.driver.Resolve(ctx, a, b)
	if err != nil && engine.IsProbeLocal(err) {
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Type: EventFail,
			Pair: craft.NewPair(a, b),
			Code: errorCode(err),
		})
	}
	return res, err
}

func (h *Harness) onProbe(p engine.Probe) {
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Type:   EventProbe,
		Seq:    p.Seq,
		Pair:   p.Pair,
		Result: p.Result,
		Glyph:  p.Glyph,
		Kind:   string(p.Kind),
	})
}

// analyze runs the discovery order, the depth solver and the target
// reconstruction over the final log.
func (h *Harness) analyze(scenario *Scenario, edges []craft.Edge) {
	seeds := scenario.SeedNames()
	h.result.Edges = edges
	h.result.Order = analysis.DiscoveryOrder(edges, seeds)

	depths, err := analysis.SolveDepths(edges, seeds)
	if err != nil {
		h.result.AddError(fmt.Sprintf("depth: %v", err))
	} else {
		h.result.Depths = depths
	}

	if len(scenario.Targets) > 0 {
		build, err := analysis.Reconstruct(edges, seeds, scenario.Targets)
		if err != nil {
			h.result.AddError(fmt.Sprintf("reconstruct: %v", err))
		} else {
			h.result.Build = build
		}
	}
}

// scriptOracle turns scenario answers into a scripted oracle.
func scriptOracle(answers []Answer) *testutil.ScriptedOracle {
	o := testutil.NewScriptedOracle()
	for _, a := range answers {
		p := craft.NewPair(a.Pair[0], a.Pair[1])
		switch a.Error {
		case "":
			o.Answer(p.A, p.B, a.Result, a.Emoji, a.IsNew)
		case FailDecode:
			o.Fail(p.A, p.B, &oracle.DecodeError{Pair: p, Body: []byte("<html>"), Err: errors.New("scripted decode failure")})
		case FailAbuse:
			o.Fail(p.A, p.B, oracle.ErrAbuseDetected)
		case FailStatus:
			o.Fail(p.A, p.B, &oracle.StatusError{Pair: p, Code: 400, Body: "scripted status failure"})
		}
	}
	return o
}

func abortEvent(err error) TraceEvent {
	ev := TraceEvent{Type: EventAbort, Code: errorCode(err)}
	var re *engine.RuntimeError
	if errors.As(err, &re) && re.Pair != "" {
		ev.Pair = pairFromString(re.Pair)
	}
	return ev
}

// errorCode returns the runtime error code of err, or "ERROR".
func errorCode(err error) string {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "ERROR"
}

// pairFromString parses the "A + B" rendering of a pair.
func pairFromString(s string) craft.Pair {
	a, b, ok := strings.Cut(s, " + ")
	if !ok {
		return craft.Pair{A: s, B: s}
	}
	return craft.NewPair(a, b)
}
