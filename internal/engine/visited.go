package engine

// visitedSet tracks which chain inputs have already been tried in this
// session. It is what makes doubling and addition chains terminate: a chain
// stops as soon as it would retry an input it has seen.
//
// Unlike the dedup cache, visited sets are not persisted; a new session
// walks chains again, answering from the cache.
type visitedSet[K comparable] struct {
	seen  map[K]struct{}
	order []K
}

func newVisitedSet[K comparable]() *visitedSet[K] {
	return &visitedSet[K]{seen: make(map[K]struct{})}
}

// Seen reports whether k was recorded.
func (v *visitedSet[K]) Seen(k K) bool {
	_, ok := v.seen[k]
	return ok
}

// Record marks k as tried. Call it before issuing the probe.
func (v *visitedSet[K]) Record(k K) {
	if _, ok := v.seen[k]; ok {
		return
	}
	v.seen[k] = struct{}{}
	v.order = append(v.order, k)
}

// Items returns recorded keys in record order.
func (v *visitedSet[K]) Items() []K {
	out := make([]K, len(v.order))
	copy(out, v.order)
	return out
}

// Len returns the number of recorded keys.
func (v *visitedSet[K]) Len() int {
	return len(v.order)
}

// additionKey is an ordered (first, second) addition input. Order matters:
// first is the running result and second the fixed partner.
type additionKey struct {
	first  string
	second string
}
