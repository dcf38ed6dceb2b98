package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/oracle"
	"github.com/roach88/craftgraph/internal/store"
)

// DefaultDelay is the pause after every oracle call.
const DefaultDelay = 200 * time.Millisecond

// ProbeKind classifies the outcome of an oracle call.
type ProbeKind string

const (
	// ProbeNew: the oracle flagged the result as a first-ever discovery.
	ProbeNew ProbeKind = "new"
	// ProbeFirst: the result was unknown locally but not new to the oracle.
	ProbeFirst ProbeKind = "first"
	// ProbeKnown: the result was already in the glyph table.
	ProbeKnown ProbeKind = "known"
)

// Probe describes one completed oracle call.
type Probe struct {
	Seq    int64
	Pair   craft.Pair
	Result string
	Glyph  string
	Kind   ProbeKind
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Driver is the single writer of one exploration session. It turns the
// dedup cache, the oracle and the edge log into one Resolve primitive.
//
// Resolve must be called from one goroutine at a time. Known and Elements
// are safe from any goroutine.
type Driver struct {
	log     store.Log
	oracle  oracle.Client
	cache   *DedupCache
	clock   *Clock
	budget  *ProbeBudget
	delay   time.Duration
	sleep   Sleeper
	metrics Metrics
	logger  *slog.Logger
	onProbe func(Probe)

	mu       sync.RWMutex
	glyphs   map[string]string
	elements []string // glyph table in first-seen order
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDelay sets the pause after each oracle call. Default: DefaultDelay.
func WithDelay(d time.Duration) DriverOption {
	return func(dr *Driver) {
		dr.delay = d
	}
}

// WithSleeper replaces the context-aware timer used for the delay.
func WithSleeper(s Sleeper) DriverOption {
	return func(dr *Driver) {
		dr.sleep = s
	}
}

// WithProbeLimit caps the number of oracle calls (0 = unbounded).
func WithProbeLimit(n int) DriverOption {
	return func(dr *Driver) {
		dr.budget = NewProbeBudget(n)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) DriverOption {
	return func(dr *Driver) {
		if m != nil {
			dr.metrics = m
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) DriverOption {
	return func(dr *Driver) {
		if l != nil {
			dr.logger = l
		}
	}
}

// WithProbeHook registers a callback invoked after every oracle call.
func WithProbeHook(fn func(Probe)) DriverOption {
	return func(dr *Driver) {
		dr.onProbe = fn
	}
}

// NewDriver creates a driver whose indices are rebuilt from snap.
func NewDriver(log store.Log, client oracle.Client, snap *craft.Snapshot, opts ...DriverOption) *Driver {
	if snap == nil {
		snap = &craft.Snapshot{}
	}
	d := &Driver{
		log:     log,
		oracle:  client,
		cache:   NewDedupCache(snap.Edges),
		clock:   NewClockAt(int64(len(snap.Edges))),
		budget:  NewProbeBudget(0),
		delay:   DefaultDelay,
		sleep:   sleepContext,
		metrics: nopMetrics{},
		logger:  slog.Default(),
		glyphs:  make(map[string]string, len(snap.Elements)),
	}
	for _, el := range snap.Elements {
		if _, ok := d.glyphs[el.Name]; !ok {
			d.elements = append(d.elements, el.Name)
		}
		d.glyphs[el.Name] = el.Glyph
	}
	// A result whose glyph record was never written is still known: its
	// edge is a cache hit, so record would never run for it again.
	var backfilled int
	for _, e := range snap.Edges {
		if _, ok := d.glyphs[e.Result]; !ok {
			d.glyphs[e.Result] = ""
			d.elements = append(d.elements, e.Result)
			backfilled++
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	if backfilled > 0 {
		d.logger.Warn("log results without a glyph record", "count", backfilled)
	}
	d.metrics.KnownElements(len(d.elements))
	return d
}

// Resolve returns the result of combining a and b, asking the oracle only
// if the pair has never been recorded.
//
// The context is consulted before an oracle call only. Once the call has
// started it runs to completion and its edge is logged, so a cancelled
// context never loses a paid-for answer.
func (d *Driver) Resolve(ctx context.Context, a, b string) (string, error) {
	p := craft.NewPair(a, b)
	if r, ok := d.cache.Lookup(p.A, p.B); ok {
		d.metrics.CacheHit()
		return r, nil
	}

	if err := ctx.Err(); err != nil {
		return "", NewInterruptedError(err)
	}
	if err := d.budget.Check(); err != nil {
		return "", err
	}

	callCtx := context.WithoutCancel(ctx)
	start := time.Now()
	comb, err := d.oracle.Combine(callCtx, p)
	d.metrics.OracleCall(time.Since(start))
	if err != nil {
		re := classifyOracleError(p, err)
		d.metrics.OracleError(string(re.Code))
		return "", re
	}

	edge := craft.Edge{A: p.A, B: p.B, Result: comb.Result}
	if err := d.log.AppendEdge(callCtx, edge); err != nil {
		return "", fmt.Errorf("append edge %s: %w", edge, err)
	}
	d.cache.Insert(p, comb.Result)

	kind, err := d.record(callCtx, p, comb)
	if err != nil {
		return "", err
	}

	probe := Probe{
		Seq:    d.clock.Next(),
		Pair:   p,
		Result: comb.Result,
		Glyph:  comb.Emoji,
		Kind:   kind,
	}
	d.logger.Info("probe",
		"seq", probe.Seq,
		"kind", string(kind),
		"pair", p.String(),
		"result", comb.Result,
		"glyph", comb.Emoji,
	)
	d.metrics.Discovered(string(kind))
	if d.onProbe != nil {
		d.onProbe(probe)
	}

	// The probe is complete; an interrupted delay only ends the pause.
	_ = d.sleep(ctx, d.delay)
	return comb.Result, nil
}

// record updates the glyph table for a fresh oracle answer.
func (d *Driver) record(ctx context.Context, p craft.Pair, comb craft.Combination) (ProbeKind, error) {
	d.mu.RLock()
	_, known := d.glyphs[comb.Result]
	d.mu.RUnlock()
	if known {
		return ProbeKnown, nil
	}

	kind := ProbeFirst
	if comb.IsNew {
		kind = ProbeNew
		disc := craft.Discovery{Pair: p, Answer: comb}
		if err := d.log.AppendDiscovery(ctx, disc); err != nil {
			d.logger.Warn("failed to record discovery",
				"pair", p.String(),
				"result", comb.Result,
				"error", err,
			)
		}
	}

	el := craft.Element{Name: comb.Result, Glyph: comb.Emoji}
	if err := d.log.AppendElement(ctx, el); err != nil {
		return "", fmt.Errorf("append element %s: %w", el.Name, err)
	}

	d.mu.Lock()
	d.glyphs[el.Name] = el.Glyph
	d.elements = append(d.elements, el.Name)
	n := len(d.elements)
	d.mu.Unlock()
	d.metrics.KnownElements(n)
	return kind, nil
}

func classifyOracleError(p craft.Pair, err error) *RuntimeError {
	re := &RuntimeError{Pair: p.String(), Err: err}
	var de *oracle.DecodeError
	switch {
	case errors.Is(err, oracle.ErrAbuseDetected):
		re.Code = ErrCodeAbuseDetected
		re.Message = "oracle abuse check triggered"
	case errors.As(err, &de):
		re.Code = ErrCodeDecodeFailed
		re.Message = "oracle answer could not be decoded"
	default:
		re.Code = ErrCodeProbeFailed
		re.Message = "oracle call failed"
	}
	return re
}

// Known reports whether name is in the glyph table.
func (d *Driver) Known(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.glyphs[name]
	return ok
}

// Elements returns every known element name in first-seen order.
func (d *Driver) Elements() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.elements))
	copy(out, d.elements)
	return out
}

// Probes returns the number of oracle calls made by this driver.
func (d *Driver) Probes() int {
	return d.budget.Used()
}

// Seq returns the current probe sequence number.
func (d *Driver) Seq() int64 {
	return d.clock.Current()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
