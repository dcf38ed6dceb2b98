package harness

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/craftgraph/internal/engine"
)

// Scenario describes one offline exploration run.
//
// The oracle is replaced by a fixed script, the log starts from Seeds plus
// any pre-recorded Log edges, and the exploration loop serves Requests
// first. Steps bounds the loop so a scenario always terminates.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Seeds are the starting elements.
	Seeds []Seed `yaml:"seeds"`

	// Log holds edges already recorded before the run, as [a, b, result].
	Log [][3]string `yaml:"log,omitempty"`

	// Oracle scripts the answer to each pair. Unscripted pairs fail
	// probe-locally.
	Oracle []Answer `yaml:"oracle"`

	// Requests are user pairs queued before the loop starts.
	Requests [][2]string `yaml:"requests,omitempty"`

	// Steps bounds the exploration loop. Required, so random sampling can
	// never run forever.
	Steps int `yaml:"steps"`

	// MaxProbes bounds oracle calls (0 = unbounded).
	MaxProbes int `yaml:"max_probes,omitempty"`

	// RandomSeed seeds the sampling source. 0 uses the engine default.
	RandomSeed uint64 `yaml:"random_seed,omitempty"`

	// Targets are reconstructed from the final log.
	Targets []string `yaml:"targets,omitempty"`

	// DoublingStop and Disqualify name the exploration predicates
	// ("digit", "numeric", "never"). Empty keeps the engine defaults.
	DoublingStop string `yaml:"doubling_stop,omitempty"`
	Disqualify   string `yaml:"disqualify,omitempty"`

	// Session is a fixed session token. Defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Assertions validate the trace and the analyses.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Seed is a starting element.
type Seed struct {
	Name  string `yaml:"name"`
	Glyph string `yaml:"glyph"`
}

// Answer scripts the oracle for one pair. Exactly one of Result and Error
// is set.
type Answer struct {
	Pair   [2]string `yaml:"pair"`
	Result string    `yaml:"result,omitempty"`
	Emoji  string    `yaml:"emoji,omitempty"`
	IsNew  bool      `yaml:"is_new,omitempty"`

	// Error makes the pair fail: "decode", "abuse" or "status".
	Error string `yaml:"error,omitempty"`
}

// Scripted oracle failure kinds.
const (
	FailDecode = "decode"
	FailAbuse  = "abuse"
	FailStatus = "status"
)

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type selects the check:
	//   - "discovered": every element in Elements was discovered
	//   - "probe_count": Count probes, of Kind if set
	//   - "trace_contains": a probe answered Pair with Result
	//   - "trace_order": Elements appear as probe results in this order
	//   - "depth": Element has depth Depth (-1 = unreachable)
	Type string `yaml:"type"`

	Elements []string  `yaml:"elements,omitempty"`
	Count    int       `yaml:"count,omitempty"`
	Kind     string    `yaml:"kind,omitempty"`
	Pair     [2]string `yaml:"pair,omitempty"`
	Result   string    `yaml:"result,omitempty"`
	Element  string    `yaml:"element,omitempty"`
	Depth    int       `yaml:"depth,omitempty"`
}

// Assertion type constants.
const (
	AssertDiscovered    = "discovered"
	AssertProbeCount    = "probe_count"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertDepth         = "depth"
)

// DefaultSession is the session token used when a scenario names none.
const DefaultSession = "test-session"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(bytes.NewReader(data))
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(r io.Reader) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Session == "" {
		scenario.Session = DefaultSession
	}
	return &scenario, nil
}

// PolicyOptions returns the predicate overrides named by the scenario.
func (s *Scenario) PolicyOptions() ([]engine.PolicyOption, error) {
	var opts []engine.PolicyOption
	if s.DoublingStop != "" {
		p, ok := engine.LookupPredicate(s.DoublingStop)
		if !ok {
			return nil, fmt.Errorf("unknown doubling_stop predicate %q", s.DoublingStop)
		}
		opts = append(opts, engine.WithDoublingStop(p))
	}
	if s.Disqualify != "" {
		p, ok := engine.LookupPredicate(s.Disqualify)
		if !ok {
			return nil, fmt.Errorf("unknown disqualify predicate %q", s.Disqualify)
		}
		opts = append(opts, engine.WithDisqualified(p))
	}
	return opts, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Seeds) == 0 {
		return fmt.Errorf("seeds list is required and must be non-empty")
	}
	for i, seed := range s.Seeds {
		if seed.Name == "" {
			return fmt.Errorf("seeds[%d]: name is required", i)
		}
	}

	if s.Steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	if s.MaxProbes < 0 {
		return fmt.Errorf("max_probes must be non-negative")
	}
	if _, err := s.PolicyOptions(); err != nil {
		return err
	}

	for i, e := range s.Log {
		if e[0] == "" || e[1] == "" || e[2] == "" {
			return fmt.Errorf("log[%d]: a, b and result are required", i)
		}
	}

	for i, a := range s.Oracle {
		if a.Pair[0] == "" || a.Pair[1] == "" {
			return fmt.Errorf("oracle[%d]: pair needs two names", i)
		}
		switch {
		case a.Error != "" && a.Result != "":
			return fmt.Errorf("oracle[%d]: result and error are exclusive", i)
		case a.Error == "" && a.Result == "":
			return fmt.Errorf("oracle[%d]: result or error is required", i)
		}
		switch a.Error {
		case "", FailDecode, FailAbuse, FailStatus:
		default:
			return fmt.Errorf("oracle[%d]: unknown error kind %q", i, a.Error)
		}
	}

	for i, r := range s.Requests {
		if r[0] == "" || r[1] == "" {
			return fmt.Errorf("requests[%d]: pair needs two names", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDiscovered:
		if len(a.Elements) == 0 {
			return fmt.Errorf("assertions[%d]: elements list is required for discovered", index)
		}
	case AssertProbeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for probe_count", index)
		}
	case AssertTraceContains:
		if a.Pair[0] == "" || a.Pair[1] == "" || a.Result == "" {
			return fmt.Errorf("assertions[%d]: pair and result are required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Elements) == 0 {
			return fmt.Errorf("assertions[%d]: elements list is required for trace_order", index)
		}
	case AssertDepth:
		if a.Element == "" {
			return fmt.Errorf("assertions[%d]: element is required for depth", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// SeedNames returns the seed names in order.
func (s *Scenario) SeedNames() []string {
	names := make([]string, len(s.Seeds))
	for i, seed := range s.Seeds {
		names[i] = seed.Name
	}
	return names
}
