package craft

import "fmt"

// Element is a named node of the crafting graph.
type Element struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

// Pair is an unordered pair of element names in canonical order (A <= B).
// Build it with NewPair; the zero value is the doubling pair of "".
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair returns the canonical pair for a and b. NewPair(a, b) == NewPair(b, a).
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// IsDoubling reports whether the pair combines an element with itself.
func (p Pair) IsDoubling() bool {
	return p.A == p.B
}

// String renders the pair the way the shell accepts it.
func (p Pair) String() string {
	return p.A + " + " + p.B
}

// Edge is one recorded combination: A + B = Result, with A <= B.
type Edge struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Result string `json:"result"`
}

// NewEdge returns the canonical edge for a + b = result.
func NewEdge(a, b, result string) Edge {
	p := NewPair(a, b)
	return Edge{A: p.A, B: p.B, Result: result}
}

// Pair returns the input pair of the edge.
func (e Edge) Pair() Pair {
	return Pair{A: e.A, B: e.B}
}

// Canonical reports whether the inputs are stored in canonical order.
func (e Edge) Canonical() bool {
	return e.A <= e.B
}

func (e Edge) String() string {
	return fmt.Sprintf("%s + %s = %s", e.A, e.B, e.Result)
}

// Combination is the oracle's answer for one pair.
type Combination struct {
	Result string `json:"result"`
	Emoji  string `json:"emoji"`
	IsNew  bool   `json:"isNew"`
}

// Discovery is a side-log record of an oracle answer the oracle itself
// flagged as a first-ever discovery.
type Discovery struct {
	Pair   Pair
	Answer Combination
}

// Snapshot is the replayed content of an edge log: edges in append order,
// the glyph table in first-seen order and the discovery side log.
type Snapshot struct {
	Edges       []Edge
	Elements    []Element
	Discoveries []Discovery

	// Skipped counts malformed records that were ignored during replay.
	Skipped int
}
