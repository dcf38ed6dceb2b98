package analysis

import (
	"sort"

	"github.com/roach88/craftgraph/internal/craft"
)

// ElementStats summarizes how one element behaves in combinations.
type ElementStats struct {
	Name string `json:"name"`

	// Doubling is the result of combining the element with itself, if known.
	Doubling    string `json:"doubling,omitempty"`
	HasDoubling bool   `json:"has_doubling"`

	// GivesSelf counts partners that leave this element unchanged (X + p = X).
	GivesSelf int `json:"gives_self"`
	// GivesOther counts partners this element leaves unchanged (X + p = p).
	GivesOther int `json:"gives_other"`
	// GivesSomething counts combinations yielding a third element.
	GivesSomething int `json:"gives_something"`
	// FromSomething counts edges producing this element from two others.
	FromSomething int `json:"from_something"`
}

// SelfDoubling reports whether doubling the element yields itself.
func (s ElementStats) SelfDoubling() bool {
	return s.HasDoubling && s.Doubling == s.Name
}

// Combinations returns the number of non-doubling combinations the
// element takes part in.
func (s ElementStats) Combinations() int {
	return s.GivesSelf + s.GivesOther + s.GivesSomething
}

// Ratio returns n divided by Combinations, or false when there are none.
func (s ElementStats) Ratio(n int) (float64, bool) {
	c := s.Combinations()
	if c == 0 {
		return 0, false
	}
	return float64(n) / float64(c), true
}

// Stats classifies every edge and returns one entry per element that
// appears in any edge, sorted by name. If a doubling pair occurs more than
// once, the first occurrence wins.
func Stats(edges []craft.Edge) []ElementStats {
	byName := make(map[string]*ElementStats)
	get := func(name string) *ElementStats {
		s, ok := byName[name]
		if !ok {
			s = &ElementStats{Name: name}
			byName[name] = s
		}
		return s
	}

	for _, e := range edges {
		switch {
		case e.A == e.B:
			s := get(e.A)
			if !s.HasDoubling {
				s.Doubling = e.Result
				s.HasDoubling = true
			}
		case e.A == e.Result:
			get(e.A).GivesSelf++
			get(e.B).GivesOther++
		case e.B == e.Result:
			get(e.A).GivesOther++
			get(e.B).GivesSelf++
		default:
			get(e.A).GivesSomething++
			get(e.B).GivesSomething++
			get(e.Result).FromSomething++
		}
	}

	out := make([]ElementStats, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
