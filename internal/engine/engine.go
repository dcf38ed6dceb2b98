package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
)

// DefaultRandomSeed seeds the sampling source when no seed is configured.
const DefaultRandomSeed = 14354

// Explorer is the long-running exploration loop.
//
// It drains queued user requests first, in submission order, then samples
// two discovered elements uniformly at random and explores them, forever
// or until a step limit, the probe budget or the context ends it.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Explorer struct {
	policy   *Policy
	queue    *requestQueue
	rng      *rand.Rand
	maxSteps int
	metrics  Metrics
	logger   *slog.Logger

	// serving is true while a user request is being explored. Only the
	// Run goroutine touches it.
	serving bool
}

// ExplorerOption configures an Explorer.
type ExplorerOption func(*Explorer)

// WithRandomSeed seeds the sampling source. Default: DefaultRandomSeed.
func WithRandomSeed(seed uint64) ExplorerOption {
	return func(e *Explorer) {
		e.rng = newRand(seed)
	}
}

// WithMaxSteps bounds the number of loop iterations (0 = unbounded). One
// step is one served request or one sampled pair, skipped or not.
func WithMaxSteps(n int) ExplorerOption {
	return func(e *Explorer) {
		e.maxSteps = n
	}
}

// WithExplorerMetrics sets the metrics sink for queue depth.
func WithExplorerMetrics(m Metrics) ExplorerOption {
	return func(e *Explorer) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithExplorerLogger sets the logger. Default: slog.Default().
func WithExplorerLogger(l *slog.Logger) ExplorerOption {
	return func(e *Explorer) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExplorer creates the loop around p. Chains started by p yield as soon
// as a user request is waiting and the loop is not already serving one.
func NewExplorer(p *Policy, opts ...ExplorerOption) *Explorer {
	e := &Explorer{
		policy:  p,
		queue:   newRequestQueue(),
		rng:     newRand(DefaultRandomSeed),
		metrics: nopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	p.preempt = e.preempted
	return e
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func (e *Explorer) preempted() bool {
	return !e.serving && e.queue.Len() > 0
}

// Submit queues a user request. Returns false once the loop has stopped.
func (e *Explorer) Submit(first, second string) bool {
	ok := e.queue.Enqueue(Request{First: first, Second: second})
	if ok {
		e.metrics.QueueDepth(e.queue.Len())
	}
	return ok
}

// Pending returns the number of queued user requests.
func (e *Explorer) Pending() int {
	return e.queue.Len()
}

// Run explores until the context is cancelled, the step limit is reached
// or the probe budget is exhausted; all three return nil.
//
// Probe-local failures (undecodable or rejected answers) are logged and the
// loop continues. Anything else, including abuse detection and log write
// failures, is returned.
func (e *Explorer) Run(ctx context.Context) error {
	e.logger.Info("exploration starting",
		"discovered", len(e.policy.discovered),
		"max_steps", e.maxSteps,
	)
	defer e.queue.Close()

	for step := 0; e.maxSteps == 0 || step < e.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			e.logger.Info("exploration stopping: context cancelled")
			return nil
		}

		stop, err := e.handle(e.next(ctx))
		if stop {
			return err
		}
	}

	e.logger.Info("exploration stopping: step limit reached", "steps", e.maxSteps)
	return nil
}

// next runs one loop step: the oldest user request if any, else a random
// pair of qualified elements.
func (e *Explorer) next(ctx context.Context) error {
	if req, ok := e.queue.TryDequeue(); ok {
		e.metrics.QueueDepth(e.queue.Len())
		e.logger.Debug("serving request", "first", req.First, "second", req.Second)

		e.serving = true
		defer func() { e.serving = false }()
		return e.policy.Explore(ctx, req.First, req.Second)
	}

	list := e.policy.discovered
	if len(list) == 0 {
		return errors.New("nothing discovered to sample from")
	}
	first := list[e.rng.IntN(len(list))]
	second := list[e.rng.IntN(len(list))]
	if e.policy.Disqualified(first) || e.policy.Disqualified(second) {
		return nil
	}
	return e.policy.Explore(ctx, first, second)
}

// handle decides whether an error from one step ends the loop.
func (e *Explorer) handle(err error) (stop bool, _ error) {
	switch {
	case err == nil:
		return false, nil
	case IsProbeLocal(err):
		e.logger.Warn("probe failed", "error", err)
		return false, nil
	case IsInterrupted(err):
		e.logger.Info("exploration stopping: interrupted")
		return true, nil
	case IsBudgetError(err):
		e.logger.Info("exploration stopping: probe budget exhausted", "error", err)
		return true, nil
	default:
		e.logger.Error("exploration failed", "error", err)
		return true, err
	}
}
