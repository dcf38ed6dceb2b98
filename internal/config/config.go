// Package config loads craftgraph settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, CRAFTGRAPH_*
// environment variables, command-line flags. The CLI applies flags on top
// of Load and then calls Validate, which checks the merged result against
// the embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/engine"
	"github.com/roach88/craftgraph/internal/oracle"
	"github.com/roach88/craftgraph/internal/store"
)

//go:embed schema.cue
var schemaSource string

// Environment variables read by Load.
const (
	EnvDataDir     = "CRAFTGRAPH_DATA_DIR"
	EnvBackend     = "CRAFTGRAPH_BACKEND"
	EnvDBPath      = "CRAFTGRAPH_DB"
	EnvMetricsAddr = "CRAFTGRAPH_METRICS_ADDR"
)

// Defaults.
const (
	DefaultDataDir    = "."
	DefaultDBPath     = "craftgraph.db"
	DefaultRandomSeed = 14354
	DefaultDelay      = 200 * time.Millisecond

	DefaultDoublingStop = engine.PredicateDigit
	DefaultDisqualify   = engine.PredicateNumeric
)

// Seed is a primordial element.
type Seed struct {
	Name  string `yaml:"name" json:"name"`
	Glyph string `yaml:"glyph" json:"glyph"`
}

// Oracle holds the oracle client settings.
type Oracle struct {
	URL       string        `yaml:"url" json:"url"`
	Referer   string        `yaml:"referer" json:"referer"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	Backoff   time.Duration `yaml:"backoff" json:"backoff"`
}

// Config is the merged configuration.
type Config struct {
	DataDir     string        `yaml:"data_dir" json:"data_dir"`
	Backend     string        `yaml:"backend" json:"backend"`
	DBPath      string        `yaml:"db_path" json:"db_path"`
	Seeds       []Seed        `yaml:"seeds" json:"seeds"`
	RandomSeed  int64         `yaml:"random_seed" json:"random_seed"`
	Delay       time.Duration `yaml:"delay" json:"delay"`
	Fsync       bool          `yaml:"fsync" json:"fsync"`
	MetricsAddr string        `yaml:"metrics_addr" json:"metrics_addr"`
	Oracle      Oracle        `yaml:"oracle" json:"oracle"`

	// DoublingStop and Disqualify name the exploration predicates:
	// "digit", "numeric" or "never".
	DoublingStop string `yaml:"doubling_stop" json:"doubling_stop"`
	Disqualify   string `yaml:"disqualify" json:"disqualify"`
}

// DefaultSeeds are the four classical elements.
func DefaultSeeds() []Seed {
	return []Seed{
		{Name: "Water", Glyph: "💧"},
		{Name: "Fire", Glyph: "🔥"},
		{Name: "Wind", Glyph: "🌬️"},
		{Name: "Earth", Glyph: "🌍"},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	oc := oracle.DefaultConfig()
	return &Config{
		DataDir:    DefaultDataDir,
		Backend:    store.BackendJSONL,
		DBPath:     DefaultDBPath,
		Seeds:      DefaultSeeds(),
		RandomSeed: DefaultRandomSeed,
		Delay:      DefaultDelay,
		Fsync:      true,
		Oracle: Oracle{
			URL:       oc.URL,
			Referer:   oc.Referer,
			UserAgent: oc.UserAgent,
			Timeout:   oc.Timeout,
			Backoff:   oc.Backoff,
		},
		DoublingStop: DefaultDoublingStop,
		Disqualify:   DefaultDisqualify,
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v, ok := lookup(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvBackend); ok {
		cfg.Backend = v
	}
	if v, ok := lookup(EnvDBPath); ok {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	return cfg, nil
}

// decodeYAML overlays data onto cfg, rejecting unknown keys.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ValidationError is one schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid config: " + e.Message
	}
	return fmt.Sprintf("invalid config at %s: %s", e.Path, e.Message)
}

// Validate checks cfg against the embedded schema.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError returns the first CUE error as a ValidationError.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	path := first.Path()
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	return &ValidationError{
		Path:    strings.Join(path, "."),
		Message: first.Error(),
	}
}

// SeedNames returns the seed names in configured order.
func (c *Config) SeedNames() []string {
	out := make([]string, len(c.Seeds))
	for i, s := range c.Seeds {
		out[i] = s.Name
	}
	return out
}

// SeedElements returns the seeds as glyph records.
func (c *Config) SeedElements() []craft.Element {
	out := make([]craft.Element, len(c.Seeds))
	for i, s := range c.Seeds {
		out[i] = craft.Element{Name: s.Name, Glyph: s.Glyph}
	}
	return out
}

// StoreOptions returns the log options for this configuration.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Backend,
		DataDir: c.DataDir,
		DBPath:  c.DBPath,
		Fsync:   c.Fsync,
		Seeds:   c.SeedElements(),
	}
}

// OracleConfig returns the HTTP client settings.
func (c *Config) OracleConfig() oracle.Config {
	return oracle.Config{
		URL:       c.Oracle.URL,
		Referer:   c.Oracle.Referer,
		UserAgent: c.Oracle.UserAgent,
		Timeout:   c.Oracle.Timeout,
		Backoff:   c.Oracle.Backoff,
	}
}

// PolicyOptions returns the exploration predicates selected by DoublingStop
// and Disqualify.
func (c *Config) PolicyOptions() ([]engine.PolicyOption, error) {
	stop, ok := engine.LookupPredicate(c.DoublingStop)
	if !ok {
		return nil, fmt.Errorf("unknown doubling_stop predicate %q", c.DoublingStop)
	}
	disq, ok := engine.LookupPredicate(c.Disqualify)
	if !ok {
		return nil, fmt.Errorf("unknown disqualify predicate %q", c.Disqualify)
	}
	return []engine.PolicyOption{
		engine.WithDoublingStop(stop),
		engine.WithDisqualified(disq),
	}, nil
}
