package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/craftgraph/internal/craft"
)

// Backend names accepted by OpenLog.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Log is an append-only edge log. Implementations are used by a single writer.
type Log interface {
	// AppendEdge durably records a combination. It returns only after the
	// record is written.
	AppendEdge(ctx context.Context, e craft.Edge) error

	// AppendElement records the glyph of a newly seen element.
	AppendElement(ctx context.Context, el craft.Element) error

	// AppendDiscovery records an oracle answer flagged as a first-ever discovery.
	AppendDiscovery(ctx context.Context, d craft.Discovery) error

	// Replay returns everything recorded so far, in append order.
	Replay(ctx context.Context) (*craft.Snapshot, error)

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	DataDir string // jsonl
	DBPath  string // sqlite
	Fsync   bool   // jsonl

	// Seeds are written to the glyph table when the log is created.
	Seeds []craft.Element
}

// OpenLog opens (creating if needed) the log described by opts.
func OpenLog(opts Options) (Log, error) {
	switch opts.Backend {
	case BackendJSONL, "":
		return OpenFileLog(opts.DataDir, opts.Seeds, opts.Fsync)
	case BackendSQLite:
		s, err := OpenSeeded(opts.DBPath, opts.Seeds)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// ReadSnapshot replays the log described by opts without creating anything.
// Analyses use it so that reading never seeds or touches a data directory.
func ReadSnapshot(ctx context.Context, opts Options) (*craft.Snapshot, error) {
	switch opts.Backend {
	case BackendJSONL, "":
		return ReadDir(opts.DataDir)
	case BackendSQLite:
		if _, err := os.Stat(opts.DBPath); errors.Is(err, fs.ErrNotExist) {
			return &craft.Snapshot{}, nil
		}
		s, err := Open(opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Replay(ctx)
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// CopyResult counts the records moved by Copy.
type CopyResult struct {
	Edges       int `json:"edges"`
	Elements    int `json:"elements"`
	Discoveries int `json:"discoveries"`
}

// Copy appends every record of snap to dst in snapshot order.
func Copy(ctx context.Context, dst Log, snap *craft.Snapshot) (CopyResult, error) {
	var res CopyResult
	for _, el := range snap.Elements {
		if err := dst.AppendElement(ctx, el); err != nil {
			return res, fmt.Errorf("copy element %q: %w", el.Name, err)
		}
		res.Elements++
	}
	for _, e := range snap.Edges {
		if err := dst.AppendEdge(ctx, e); err != nil {
			return res, fmt.Errorf("copy edge %s: %w", e, err)
		}
		res.Edges++
	}
	for _, d := range snap.Discoveries {
		if err := dst.AppendDiscovery(ctx, d); err != nil {
			return res, fmt.Errorf("copy discovery %s: %w", d.Pair, err)
		}
		res.Discoveries++
	}
	return res, nil
}

var (
	_ Log = (*FileLog)(nil)
	_ Log = (*Store)(nil)
)
