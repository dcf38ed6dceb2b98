package engine

import "context"

// Resolver answers combinations. *Driver is the production implementation.
type Resolver interface {
	Resolve(ctx context.Context, a, b string) (string, error)
}

// Policy chooses which pairs to probe. It owns the discovered-element list
// and the visited sets that make every chain terminate.
//
// A Policy is not safe for concurrent use; it runs inside the exploration
// loop only.
type Policy struct {
	resolver Resolver

	discovered []string
	known      map[string]struct{}

	doubling *visitedSet[string]
	addition *visitedSet[additionKey]

	doublingStop Predicate
	disqualified Predicate

	// preempt reports whether the running chain should yield.
	preempt func() bool
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithDoublingStop sets the predicate that ends a doubling chain after a
// matching result. Default: ContainsDigit.
func WithDoublingStop(p Predicate) PolicyOption {
	return func(pol *Policy) {
		if p != nil {
			pol.doublingStop = p
		}
	}
}

// WithDisqualified sets the predicate for degenerate elements: addition
// stops early on them and random sampling skips them. Default: LooksNumeric.
func WithDisqualified(p Predicate) PolicyOption {
	return func(pol *Policy) {
		if p != nil {
			pol.disqualified = p
		}
	}
}

// NewPolicy creates a policy whose discovered list starts with seeds.
func NewPolicy(r Resolver, seeds []string, opts ...PolicyOption) *Policy {
	p := &Policy{
		resolver:     r,
		known:        make(map[string]struct{}, len(seeds)),
		doubling:     newVisitedSet[string](),
		addition:     newVisitedSet[additionKey](),
		doublingStop: ContainsDigit,
		disqualified: LooksNumeric,
		preempt:      func() bool { return false },
	}
	for _, s := range seeds {
		p.discover(s)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// discover adds name to the discovered list. Returns true if it was new.
func (p *Policy) discover(name string) bool {
	if _, ok := p.known[name]; ok {
		return false
	}
	p.known[name] = struct{}{}
	p.discovered = append(p.discovered, name)
	return true
}

// step is checked before every probe of a chain. A nil error with
// stop=true means the chain yields to queued user work.
func (p *Policy) step(ctx context.Context) (stop bool, err error) {
	if err := ctx.Err(); err != nil {
		return true, NewInterruptedError(err)
	}
	return p.preempt(), nil
}

// RepeatedDoubling combines x with itself, then the result with itself, and
// so on. It stops at the first element whose doubling was already tried or
// at a result matching the doubling-stop predicate.
func (p *Policy) RepeatedDoubling(ctx context.Context, x string) error {
	for !p.doubling.Seen(x) {
		if stop, err := p.step(ctx); stop {
			return err
		}
		p.doubling.Record(x)

		next, err := p.resolver.Resolve(ctx, x, x)
		if err != nil {
			return err
		}
		p.discover(next)
		if p.doublingStop(next) {
			return nil
		}
		x = next
	}
	return nil
}

// RepeatedAddition combines first with the fixed partner second, feeding
// each result back in as first. It stops once an ordered (first, second)
// input repeats, or early when first is disqualified together with second
// or the latest result. Every newly discovered result is doubled.
func (p *Policy) RepeatedAddition(ctx context.Context, first, second string) error {
	for !p.addition.Seen(additionKey{first, second}) {
		if stop, err := p.step(ctx); stop {
			return err
		}
		p.addition.Record(additionKey{first, second})

		result, err := p.resolver.Resolve(ctx, first, second)
		if err != nil {
			return err
		}
		if p.discover(result) {
			if err := p.RepeatedDoubling(ctx, result); err != nil {
				return err
			}
		}
		if p.disqualified(first) && (p.disqualified(second) || p.disqualified(result)) {
			return nil
		}
		first = result
	}
	return nil
}

// Explore probes first + second and follows up on the result: a new result
// is doubled, and a result different from both inputs starts addition
// chains against each input.
func (p *Policy) Explore(ctx context.Context, first, second string) error {
	if stop, err := p.step(ctx); stop {
		return err
	}
	if first == second {
		return p.RepeatedDoubling(ctx, first)
	}

	result, err := p.resolver.Resolve(ctx, first, second)
	if err != nil {
		return err
	}
	if p.discover(result) {
		if err := p.RepeatedDoubling(ctx, result); err != nil {
			return err
		}
	}
	if result != first && result != second {
		if err := p.RepeatedAddition(ctx, result, second); err != nil {
			return err
		}
		if err := p.RepeatedAddition(ctx, result, first); err != nil {
			return err
		}
	}
	return nil
}

// Discovered returns the discovered elements in discovery order.
func (p *Policy) Discovered() []string {
	out := make([]string, len(p.discovered))
	copy(out, p.discovered)
	return out
}

// DoublingVisited returns the elements whose doubling was tried, in order.
func (p *Policy) DoublingVisited() []string {
	return p.doubling.Items()
}

// AdditionVisited returns the number of ordered addition inputs tried.
func (p *Policy) AdditionVisited() int {
	return p.addition.Len()
}

// Disqualified reports whether name matches the disqualifying predicate.
func (p *Policy) Disqualified(name string) bool {
	return p.disqualified(name)
}
