package engine

// ProbeBudget caps the number of oracle calls a session may make.
//
// A zero limit means unbounded. The budget is checked before each oracle
// call, never on cache hits, so a fully cached walk does not consume it.
type ProbeBudget struct {
	limit int
	used  int
}

// NewProbeBudget creates a budget allowing limit oracle calls.
func NewProbeBudget(limit int) *ProbeBudget {
	return &ProbeBudget{limit: limit}
}

// Check reserves one probe. Returns a BUDGET_EXHAUSTED RuntimeError once
// the limit has been reached.
func (b *ProbeBudget) Check() error {
	if b.limit > 0 && b.used >= b.limit {
		return NewBudgetError(b.used, b.limit)
	}
	b.used++
	return nil
}

// Used returns the number of probes reserved so far.
func (b *ProbeBudget) Used() int {
	return b.used
}

// Limit returns the configured limit (0 = unbounded).
func (b *ProbeBudget) Limit() int {
	return b.limit
}
