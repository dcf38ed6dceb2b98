package analysis

import "github.com/roach88/craftgraph/internal/craft"

// Order is a breadth-first discovery order.
type Order struct {
	// Elements lists the seeds, then every derived element in the order it
	// was placed.
	Elements []string

	// Edges holds, for each derived element, the canonical edge that placed
	// it. Edges[i] produced Elements[len(seeds)+i].
	Edges []craft.Edge

	// Position maps an element to its index in Elements.
	Position map[string]int
}

// partner is one adjacency entry: combining the owner with with gives result.
type partner struct {
	with   string
	result string
}

// orderWalker holds the mutable state of one DiscoveryOrder run.
type orderWalker struct {
	adj map[string][]partner
	res *Order
}

// DiscoveryOrder replays edges breadth-first from seeds.
//
// Elements are scanned in placement order. For the element at index i, each
// of its edges (in log order) places the result when the partner input is
// already at an index <= i and the result is not yet placed. The walk stops
// when every placed element has been scanned.
func DiscoveryOrder(edges []craft.Edge, seeds []string) *Order {
	w := &orderWalker{
		adj: make(map[string][]partner),
		res: &Order{Position: make(map[string]int, len(seeds))},
	}
	for _, e := range edges {
		w.adj[e.A] = append(w.adj[e.A], partner{with: e.B, result: e.Result})
		w.adj[e.B] = append(w.adj[e.B], partner{with: e.A, result: e.Result})
	}
	for _, s := range seeds {
		w.place(s)
	}

	for i := 0; i < len(w.res.Elements); i++ {
		a := w.res.Elements[i]
		for _, p := range w.adj[a] {
			pos, ok := w.res.Position[p.with]
			if !ok || pos > i {
				continue
			}
			if w.place(p.result) {
				w.res.Edges = append(w.res.Edges, craft.NewEdge(a, p.with, p.result))
			}
		}
	}
	return w.res
}

// place appends name unless it is already placed.
func (w *orderWalker) place(name string) bool {
	if _, ok := w.res.Position[name]; ok {
		return false
	}
	w.res.Position[name] = len(w.res.Elements)
	w.res.Elements = append(w.res.Elements, name)
	return true
}
