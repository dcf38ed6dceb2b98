package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/craftgraph/internal/craft"
)

// File names inside a jsonl data directory.
const (
	EdgesFile       = "connections.json"
	ElementsFile    = "elements.json"
	DiscoveriesFile = "newconnections.json"
)

// maxLineSize bounds a single record line when reading.
const maxLineSize = 1 << 20

// FileLog is the newline-delimited JSON backend.
type FileLog struct {
	mu          sync.Mutex
	dir         string
	fsync       bool
	seeded      bool
	edges       *os.File
	elements    *os.File
	discoveries *os.File
}

// OpenFileLog opens the log in dir, creating the directory and files as
// needed. When the glyph file does not exist yet it is created exclusively and
// filled with seeds.
//
// A record left without its trailing newline by a crash is terminated before
// the first append, so the next record never merges into it.
func OpenFileLog(dir string, seeds []craft.Element, fsync bool) (*FileLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("open file log: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open file log: %w", err)
	}

	seeded, err := seedElements(filepath.Join(dir, ElementsFile), seeds)
	if err != nil {
		return nil, fmt.Errorf("open file log: seed elements: %w", err)
	}

	l := &FileLog{dir: dir, fsync: fsync, seeded: seeded}
	for _, f := range []struct {
		name string
		dst  **os.File
	}{
		{EdgesFile, &l.edges},
		{ElementsFile, &l.elements},
		{DiscoveriesFile, &l.discoveries},
	} {
		file, err := openAppend(filepath.Join(dir, f.name))
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("open file log: %w", err)
		}
		*f.dst = file
	}

	return l, nil
}

// Seeded reports whether this Open created the glyph file from seeds.
func (l *FileLog) Seeded() bool {
	return l.seeded
}

// Dir returns the data directory.
func (l *FileLog) Dir() string {
	return l.dir
}

func (l *FileLog) AppendEdge(_ context.Context, e craft.Edge) error {
	line, err := craft.MarshalEdge(e)
	if err != nil {
		return fmt.Errorf("append edge: %w", err)
	}
	if err := l.appendLine(&l.edges, line); err != nil {
		return fmt.Errorf("append edge: %w", err)
	}
	return nil
}

func (l *FileLog) AppendElement(_ context.Context, el craft.Element) error {
	line, err := craft.MarshalElement(el)
	if err != nil {
		return fmt.Errorf("append element: %w", err)
	}
	if err := l.appendLine(&l.elements, line); err != nil {
		return fmt.Errorf("append element: %w", err)
	}
	return nil
}

func (l *FileLog) AppendDiscovery(_ context.Context, d craft.Discovery) error {
	line, err := craft.MarshalDiscovery(d)
	if err != nil {
		return fmt.Errorf("append discovery: %w", err)
	}
	if err := l.appendLine(&l.discoveries, line); err != nil {
		return fmt.Errorf("append discovery: %w", err)
	}
	return nil
}

// Replay reads the data directory back.
func (l *FileLog) Replay(_ context.Context) (*craft.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ReadDir(l.dir)
}

// Close closes all files. Safe to call more than once.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, f := range []**os.File{&l.edges, &l.elements, &l.discoveries} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil {
			errs = append(errs, err)
		}
		*f = nil
	}
	return errors.Join(errs...)
}

// appendLine writes one complete record with a single write call. The file
// field is read under l.mu, so an append racing Close sees the closed log.
func (l *FileLog) appendLine(field **os.File, line []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f := *field
	if f == nil {
		return fmt.Errorf("log is closed")
	}
	if _, err := f.Write(line); err != nil {
		return err
	}
	if l.fsync {
		return f.Sync()
	}
	return nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if err := terminateTornRecord(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("repair %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// terminateTornRecord appends a newline when the file does not end with one.
func terminateTornRecord(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	slog.Warn("terminating torn record", "file", f.Name())
	_, err = f.Write([]byte("\n"))
	return err
}

// seedElements creates path exclusively and writes the seed glyphs. It
// returns false without error when the file already exists.
func seedElements(path string, seeds []craft.Element) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, el := range seeds {
		line, err := craft.MarshalElement(el)
		if err != nil {
			return false, err
		}
		if _, err := w.Write(line); err != nil {
			return false, err
		}
	}
	if err := w.Flush(); err != nil {
		return false, err
	}
	return true, f.Sync()
}

// ReadDir replays a data directory. Missing files read as empty.
func ReadDir(dir string) (*craft.Snapshot, error) {
	snap := &craft.Snapshot{}

	skipped, err := readFile(filepath.Join(dir, ElementsFile), func(line []byte) error {
		el, err := craft.UnmarshalElement(line)
		if err == nil {
			snap.Elements = append(snap.Elements, el)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	snap.Skipped += skipped

	skipped, err = readFile(filepath.Join(dir, EdgesFile), func(line []byte) error {
		e, err := craft.UnmarshalEdge(line)
		if err == nil {
			snap.Edges = append(snap.Edges, e)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	snap.Skipped += skipped

	skipped, err = readFile(filepath.Join(dir, DiscoveriesFile), func(line []byte) error {
		d, err := craft.UnmarshalDiscovery(line)
		if err == nil {
			snap.Discoveries = append(snap.Discoveries, d)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	snap.Skipped += skipped

	return snap, nil
}

// ReadEdges reads a stream of edge records, such as the output of another
// analysis piped on stdin. Malformed lines are skipped and counted.
func ReadEdges(r io.Reader) ([]craft.Edge, int, error) {
	var edges []craft.Edge
	skipped, err := scanLines(r, func(line []byte) error {
		e, err := craft.UnmarshalEdge(line)
		if err == nil {
			edges = append(edges, e)
		}
		return err
	})
	return edges, skipped, err
}

func readFile(path string, fn func([]byte) error) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	skipped, err := scanLines(f, fn)
	if err != nil {
		return skipped, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return skipped, nil
}

// scanLines feeds every line to fn. Lines that are not records are ignored;
// lines fn rejects are logged and counted.
func scanLines(r io.Reader, fn func([]byte) error) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	skipped := 0
	lineNo := 0
	for sc.Scan() {
		lineNo++
		err := fn(sc.Bytes())
		switch {
		case err == nil, errors.Is(err, craft.ErrNotRecord):
		default:
			skipped++
			slog.Warn("skipping malformed record", "line", lineNo, "error", err)
		}
	}
	return skipped, sc.Err()
}
