package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/craftgraph/internal/analysis"
	"github.com/roach88/craftgraph/internal/config"
	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/store"
)

// readLog loads the configuration and replays the configured log without
// creating it.
func readLog(ctx context.Context, opts *RootOptions) (*config.Config, *craft.Snapshot, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	snap, err := store.ReadSnapshot(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to read log", err)
	}
	return cfg, snap, nil
}

// edgeLines renders edges as log records without the trailing newline.
func edgeLines(edges []craft.Edge) ([]string, error) {
	lines := make([]string, 0, len(edges))
	for _, e := range edges {
		b, err := craft.MarshalEdge(e)
		if err != nil {
			return nil, err
		}
		lines = append(lines, strings.TrimSuffix(string(b), "\n"))
	}
	return lines, nil
}

// analysisError maps an analysis failure to an exit error, reporting it
// through the formatter first.
func analysisError(f *OutputFormatter, err error) error {
	code := CodeIntegrity
	if errors.Is(err, analysis.ErrUnknownTarget) {
		code = CodeUnknownTarget
	}
	if f.Format == "json" {
		var ie *analysis.IntegrityError
		var details interface{}
		if errors.As(err, &ie) {
			details = ie
		}
		if ferr := f.Error(code, err.Error(), details); ferr != nil {
			return ferr
		}
	}
	return WrapExitError(ExitFailure, "analysis failed", err)
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print the breadth-first discovery order",
		Long: `Replay the edge log breadth-first from the seeds and print, for every
element reachable from them, the edge that first places it.

The output is itself an edge log and can be piped into reconstruct.

Examples:
  craftgraph order
  craftgraph order --backend sqlite --db ./craftgraph.db
  craftgraph order | craftgraph reconstruct Cloud`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, snap, err := readLog(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			order := analysis.DiscoveryOrder(snap.Edges, cfg.SeedNames())
			lines, err := edgeLines(order.Edges)
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Lines(orderData(order), lines)
		},
	}
}

// OrderResult is the JSON form of the order command.
type OrderResult struct {
	Elements []string     `json:"elements"`
	Edges    []craft.Edge `json:"edges"`
}

func orderData(o *analysis.Order) OrderResult {
	res := OrderResult{Elements: o.Elements, Edges: o.Edges}
	if res.Edges == nil {
		res.Edges = []craft.Edge{}
	}
	return res
}

// DepthOptions holds flags for the depth command.
type DepthOptions struct {
	*RootOptions
	Table bool
}

// DepthRow is one element of the depth table.
type DepthRow struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

// DepthResult is the JSON form of the depth command.
type DepthResult struct {
	Witnesses []craft.Edge `json:"witnesses"`
	Table     []DepthRow   `json:"table"`
	Passes    int          `json:"passes"`
}

// NewDepthCommand creates the depth command.
func NewDepthCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepthOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "depth",
		Short: "Compute the minimum combination depth of every element",
		Long: `Compute, for every element reachable from the seeds, the smallest number
of combination rounds needed to build it. Seeds have depth 0.

By default one witness edge per element is printed, the first edge in log
order that achieves the minimum. With --table, "name<TAB>depth" rows are
printed in discovery order instead. Elements that cannot be built from the
seeds are left out.

Exit codes:
  0 - Success
  1 - The log has no consistent depth assignment
  2 - Command error

Examples:
  craftgraph depth
  craftgraph depth --table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDepth(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Table, "table", false, "print name<TAB>depth rows in discovery order")

	return cmd
}

func runDepth(opts *DepthOptions, cmd *cobra.Command) error {
	cfg, snap, err := readLog(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	seeds := cfg.SeedNames()
	res, err := analysis.SolveDepths(snap.Edges, seeds)
	if err != nil {
		return analysisError(f, err)
	}

	order := analysis.DiscoveryOrder(snap.Edges, seeds)
	data := DepthResult{Witnesses: res.Witnesses, Table: []DepthRow{}, Passes: res.Passes}
	if data.Witnesses == nil {
		data.Witnesses = []craft.Edge{}
	}
	for _, name := range order.Elements {
		if d, ok := res.Depth(name); ok {
			data.Table = append(data.Table, DepthRow{Name: name, Depth: d})
		}
	}

	if !opts.Table {
		lines, err := edgeLines(res.Witnesses)
		if err != nil {
			return err
		}
		return f.Lines(data, lines)
	}

	lines := make([]string, len(data.Table))
	for i, row := range data.Table {
		lines[i] = row.Name + "\t" + strconv.Itoa(row.Depth)
	}
	return f.Lines(data, lines)
}

// Edge sources for reconstruct.
const (
	ViaOrder = "order"
	ViaDepth = "depth"
)

// ReconstructOptions holds flags for the reconstruct command.
type ReconstructOptions struct {
	*RootOptions
	FromLog bool
	Via     string
}

// NewReconstructCommand creates the reconstruct command.
func NewReconstructCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconstructOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconstruct TARGET...",
		Short: "Print a build sequence for the given elements",
		Long: `Print the edges needed to build every target from the seeds, each edge
after the edges that build its inputs. Shared dependencies are printed once.

Edges are read from stdin, typically the output of order or depth. With
--from-log the configured log is read instead, ordered first by discovery
order (--via order) or reduced to minimal-depth witnesses (--via depth).

Exit codes:
  0 - Success
  1 - A target is never produced, or the producers form a cycle
  2 - Command error

Examples:
  craftgraph order | craftgraph reconstruct Cloud Rain
  craftgraph reconstruct --from-log --via depth Cloud`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconstruct(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FromLog, "from-log", false, "read edges from the configured log instead of stdin")
	cmd.Flags().StringVar(&opts.Via, "via", ViaOrder, "ordering of log edges with --from-log (order|depth)")

	return cmd
}

func runReconstruct(opts *ReconstructOptions, targets []string, cmd *cobra.Command) error {
	if opts.Via != ViaOrder && opts.Via != ViaDepth {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --via %q: must be %s or %s", opts.Via, ViaOrder, ViaDepth))
	}

	cfg, edges, err := reconstructInput(opts, cmd)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	build, err := analysis.Reconstruct(edges, cfg.SeedNames(), targets)
	if err != nil {
		return analysisError(f, err)
	}

	lines, err := edgeLines(build)
	if err != nil {
		return err
	}
	if build == nil {
		build = []craft.Edge{}
	}
	return f.Lines(build, lines)
}

// reconstructInput returns the edges reconstruct works from.
func reconstructInput(opts *ReconstructOptions, cmd *cobra.Command) (*config.Config, []craft.Edge, error) {
	if !opts.FromLog {
		cfg, err := opts.loadConfig()
		if err != nil {
			return nil, nil, err
		}
		edges, skipped, err := store.ReadEdges(cmd.InOrStdin())
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to read edges", err)
		}
		if skipped > 0 {
			opts.formatter(cmd).VerboseLog("skipped %d malformed edge records", skipped)
		}
		return cfg, edges, nil
	}

	cfg, snap, err := readLog(cmd.Context(), opts.RootOptions)
	if err != nil {
		return nil, nil, err
	}
	seeds := cfg.SeedNames()
	if opts.Via == ViaDepth {
		res, err := analysis.SolveDepths(snap.Edges, seeds)
		if err != nil {
			return nil, nil, analysisError(opts.formatter(cmd), err)
		}
		return cfg, res.Witnesses, nil
	}
	return cfg, analysis.DiscoveryOrder(snap.Edges, seeds).Edges, nil
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print per-element combination statistics",
		Long: `Classify every edge and print one tab-separated row per element, sorted
by name:

  name  self-doubling  doubling  combinations  produced-by  self%  other%  new%  produced%

"self-doubling" is 1 when the element doubles to itself. The ratio columns
divide the number of partners that leave the element unchanged, partners
the element leaves unchanged, combinations giving a third element and
edges producing the element by the number of non-doubling combinations.
"-" marks a value that does not exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := readLog(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			stats := analysis.Stats(snap.Edges)
			if stats == nil {
				stats = []analysis.ElementStats{}
			}
			lines := make([]string, len(stats))
			for i, s := range stats {
				lines[i] = statsRow(s)
			}
			return rootOpts.formatter(cmd).Lines(stats, lines)
		},
	}
}

func statsRow(s analysis.ElementStats) string {
	self, double := "-", "-"
	if s.HasDoubling {
		self = "0"
		if s.SelfDoubling() {
			self = "1"
		}
		double = s.Doubling
	}

	row := []string{
		s.Name,
		self,
		double,
		strconv.Itoa(s.Combinations()),
		strconv.Itoa(s.FromSomething),
	}
	for _, n := range []int{s.GivesSelf, s.GivesOther, s.GivesSomething, s.FromSomething} {
		r, ok := s.Ratio(n)
		if !ok {
			row = append(row, "-")
			continue
		}
		row = append(row, strconv.FormatFloat(r, 'g', 4, 64))
	}
	return strings.Join(row, "\t")
}
