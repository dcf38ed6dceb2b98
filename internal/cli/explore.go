package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/craftgraph/internal/config"
	"github.com/roach88/craftgraph/internal/engine"
	"github.com/roach88/craftgraph/internal/metrics"
	"github.com/roach88/craftgraph/internal/oracle"
	"github.com/roach88/craftgraph/internal/shell"
	"github.com/roach88/craftgraph/internal/store"
)

// ExploreOptions holds flags for the explore command.
type ExploreOptions struct {
	*RootOptions
	Delay       time.Duration
	Seed        int64
	MaxProbes   int
	MaxSteps    int
	NoShell     bool
	MetricsAddr string

	// Client allows overriding the oracle (for testing).
	// If nil, an HTTP client is built from the config.
	Client oracle.Client

	// SessionGenerator allows overriding the session token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator

	// Signals allows injecting interrupts (for testing).
	// If nil, SIGINT and SIGTERM are delivered.
	Signals chan os.Signal

	// Exit is called on a second interrupt. Defaults to os.Exit.
	Exit func(code int)

	// Sleeper allows replacing the rate-limit pause (for testing).
	Sleeper engine.Sleeper
}

// ExploreResult summarizes an exploration session.
type ExploreResult struct {
	Session  string `json:"session"`
	Probes   int    `json:"probes"`
	Edges    int64  `json:"edges"`
	Elements int    `json:"elements"`
	Stopped  string `json:"stopped"`
}

func (r ExploreResult) String() string {
	return fmt.Sprintf("session %s: %d probes, %d edges, %d elements known (%s)",
		r.Session, r.Probes, r.Edges, r.Elements, r.Stopped)
}

// NewExploreCommand creates the explore command.
func NewExploreCommand(rootOpts *RootOptions) *cobra.Command {
	return newExploreCommand(&ExploreOptions{RootOptions: rootOpts})
}

func newExploreCommand(opts *ExploreOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore the crafting graph through the oracle",
		Long: `Explore the crafting graph, recording every oracle answer in the edge log.

The log is replayed first, so a session continues where the last one
stopped and never asks the oracle the same pair twice. Exploration runs
until interrupted, while a shell on stdin accepts "A + B" requests, which
are served before any autonomous exploration.

The first Ctrl-C stops exploration between two probes. A second Ctrl-C
exits immediately with status 130. Closing stdin (Ctrl-D) also stops
exploration.

Exit codes:
  0  - Stopped normally
  1  - Exploration failed (log write failure)
  2  - Command error
  43 - The oracle answered with its abuse check

Examples:
  craftgraph explore
  craftgraph explore --backend sqlite --db ./craftgraph.db --metrics-addr :9090
  craftgraph explore --no-shell --max-probes 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Delay, "delay", config.DefaultDelay, "pause after every oracle call")
	cmd.Flags().Int64Var(&opts.Seed, "seed", config.DefaultRandomSeed, "random seed for pair sampling")
	cmd.Flags().IntVar(&opts.MaxProbes, "max-probes", 0, "stop after this many oracle calls (0 = unbounded)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "stop after this many exploration steps (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.NoShell, "no-shell", false, "do not read requests from stdin")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func runExplore(opts *ExploreOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("delay") {
		cfg.Delay = opts.Delay
	}
	if flags.Changed("seed") {
		cfg.RandomSeed = opts.Seed
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	policyOpts, err := cfg.PolicyOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	sessions := opts.SessionGenerator
	if sessions == nil {
		sessions = engine.UUIDv7Generator{}
	}
	session := sessions.Generate()
	logger := opts.newLogger(cmd.ErrOrStderr()).With("session", session)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	edgeLog, err := store.OpenLog(cfg.StoreOptions())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open log", err)
	}
	defer func() {
		if closeErr := edgeLog.Close(); closeErr != nil {
			logger.Error("error closing log", "error", closeErr)
		}
	}()

	snap, err := edgeLog.Replay(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay log", err)
	}
	if snap.Skipped > 0 {
		logger.Warn("skipped malformed log records", "count", snap.Skipped)
	}
	logger.Info("log replayed", "edges", len(snap.Edges), "elements", len(snap.Elements))

	registry := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(registry)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, registry); err != nil {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	client := opts.Client
	if client == nil {
		client = oracle.NewHTTPClient(cfg.OracleConfig())
	}

	driverOpts := []engine.DriverOption{
		engine.WithDelay(cfg.Delay),
		engine.WithProbeLimit(opts.MaxProbes),
		engine.WithMetrics(m),
		engine.WithLogger(logger),
	}
	if opts.Sleeper != nil {
		driverOpts = append(driverOpts, engine.WithSleeper(opts.Sleeper))
	}
	driver := engine.NewDriver(edgeLog, client, snap, driverOpts...)

	policy := engine.NewPolicy(driver, append(cfg.SeedNames(), driver.Elements()...), policyOpts...)
	explorer := engine.NewExplorer(policy,
		engine.WithRandomSeed(uint64(cfg.RandomSeed)),
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithExplorerMetrics(m),
		engine.WithExplorerLogger(logger),
	)

	stopSignals := opts.watchSignals(cancel, logger)
	defer stopSignals()

	shellDone := make(chan struct{})
	if opts.NoShell {
		close(shellDone)
	} else {
		sh := shell.New(cmd.InOrStdin(), cmd.OutOrStdout(), driver, explorer)
		go func() {
			defer close(shellDone)
			if err := sh.Run(ctx); err != nil {
				logger.Error("shell failed", "error", err)
			}
			// Closing stdin ends the session.
			cancel()
		}()
	}

	runErr := explorer.Run(ctx)
	stopped := "stopped"
	if ctx.Err() != nil {
		stopped = "interrupted"
	}
	cancel()
	<-shellDone

	res := ExploreResult{
		Session:  session,
		Probes:   driver.Probes(),
		Edges:    driver.Seq(),
		Elements: len(driver.Elements()),
		Stopped:  stopped,
	}

	if runErr != nil {
		var re *engine.RuntimeError
		if errors.As(runErr, &re) && engine.IsFatal(runErr) {
			logger.Error("oracle abuse check triggered, stopping", "pair", re.Pair)
			return WrapExitError(ExitAbuse, "abuse detected", runErr)
		}
		return WrapExitError(ExitFailure, "exploration failed", runErr)
	}

	f := opts.formatter(cmd)
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    res,
			Session: session,
		})
	}
	return f.Success(res)
}

// watchSignals cancels the session on the first interrupt and exits with
// ExitInterrupted on the second. The returned function stops watching.
func (o *ExploreOptions) watchSignals(cancel context.CancelFunc, logger *slog.Logger) func() {
	sigs := o.Signals
	if sigs == nil {
		sigs = make(chan os.Signal, 2)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	}
	exit := o.Exit
	if exit == nil {
		exit = os.Exit
	}

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigs:
			logger.Info("received signal, stopping after the current probe", "signal", sig)
			cancel()
		case <-done:
			return
		}
		select {
		case sig := <-sigs:
			logger.Warn("received second signal, exiting", "signal", sig)
			exit(ExitInterrupted)
		case <-done:
		}
	}()

	return func() {
		close(done)
		if o.Signals == nil {
			signal.Stop(sigs)
		}
	}
}
