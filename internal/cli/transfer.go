package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/store"
)

// TransferResult is the output of import and export.
type TransferResult struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Copied store.CopyResult `json:"copied"`
}

func (r TransferResult) String() string {
	return fmt.Sprintf("copied %d edges, %d elements and %d discoveries from %s to %s",
		r.Copied.Edges, r.Copied.Elements, r.Copied.Discoveries, r.From, r.To)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Copy the jsonl log into the SQLite database",
		Long: `Copy every record of the jsonl log in --data-dir into the SQLite database
at --db, in log order. The database must not hold any edges yet.

Example:
  craftgraph import --data-dir ./run1 --db ./run1.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			snap, err := store.ReadDir(cfg.DataDir)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read jsonl log", err)
			}

			dst, err := store.Open(cfg.DBPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer dst.Close()

			n, err := dst.EdgeCount(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to inspect database", err)
			}
			if n > 0 {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("database %s already holds %d edges", cfg.DBPath, n))
			}

			res, err := copyLog(ctx, dst, snap)
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(TransferResult{From: cfg.DataDir, To: cfg.DBPath, Copied: res})
		},
	}
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Copy the SQLite database into a jsonl log",
		Long: `Copy every record of the SQLite database at --db into a jsonl log in
--data-dir, in log order. The directory must not hold a log yet.

Example:
  craftgraph export --db ./run1.db --data-dir ./run1-export`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			snap, err := store.ReadSnapshot(ctx, store.Options{Backend: store.BackendSQLite, DBPath: cfg.DBPath})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read database", err)
			}

			existing, err := store.ReadDir(cfg.DataDir)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to inspect data directory", err)
			}
			if len(existing.Edges) > 0 || len(existing.Elements) > 0 {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("data directory %s already holds a log", cfg.DataDir))
			}

			dst, err := store.OpenFileLog(cfg.DataDir, nil, cfg.Fsync)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open jsonl log", err)
			}
			defer dst.Close()

			res, err := copyLog(ctx, dst, snap)
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(TransferResult{From: cfg.DBPath, To: cfg.DataDir, Copied: res})
		},
	}
}

func copyLog(ctx context.Context, dst store.Log, snap *craft.Snapshot) (store.CopyResult, error) {
	res, err := store.Copy(ctx, dst, snap)
	if err != nil {
		return res, WrapExitError(ExitFailure, "copy failed", err)
	}
	return res, nil
}
