package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/craftgraph/internal/craft"
)

// Replay returns all records ordered by seq.
func (s *Store) Replay(ctx context.Context) (*craft.Snapshot, error) {
	snap := &craft.Snapshot{}

	elements, err := s.readElements(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	snap.Elements = elements

	edges, err := s.readEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	snap.Edges = edges

	discoveries, err := s.readDiscoveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	snap.Discoveries = discoveries

	return snap, nil
}

// LookupEdge returns the recorded result for a pair.
// Returns ("", false, nil) if the pair has never been combined.
func (s *Store) LookupEdge(ctx context.Context, p craft.Pair) (string, bool, error) {
	var result string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM edges WHERE input_a = ? AND input_b = ?`, p.A, p.B,
	).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup edge: %w", err)
	}
	return result, true, nil
}

// LookupProducers returns every edge producing result, ordered by seq.
func (s *Store) LookupProducers(ctx context.Context, result string) ([]craft.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT input_a, input_b, result FROM edges
		WHERE result = ?
		ORDER BY seq ASC
	`, result)
	if err != nil {
		return nil, fmt.Errorf("lookup producers: %w", err)
	}
	return scanEdges(rows)
}

// EdgeCount returns the number of recorded edges.
func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count edges: %w", err)
	}
	return n, nil
}

func (s *Store) readEdges(ctx context.Context) ([]craft.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input_a, input_b, result FROM edges ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	return scanEdges(rows)
}

func (s *Store) readElements(ctx context.Context) ([]craft.Element, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, glyph FROM elements ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	var elements []craft.Element
	for rows.Next() {
		var el craft.Element
		if err := rows.Scan(&el.Name, &el.Glyph); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		elements = append(elements, el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elements: %w", err)
	}
	return elements, nil
}

func (s *Store) readDiscoveries(ctx context.Context) ([]craft.Discovery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT input_a, input_b, result, emoji, is_new
		FROM discoveries ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query discoveries: %w", err)
	}
	defer rows.Close()

	var discoveries []craft.Discovery
	for rows.Next() {
		var d craft.Discovery
		if err := rows.Scan(&d.Pair.A, &d.Pair.B, &d.Answer.Result, &d.Answer.Emoji, &d.Answer.IsNew); err != nil {
			return nil, fmt.Errorf("scan discovery: %w", err)
		}
		discoveries = append(discoveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discoveries: %w", err)
	}
	return discoveries, nil
}

func scanEdges(rows *sql.Rows) ([]craft.Edge, error) {
	defer rows.Close()

	var edges []craft.Edge
	for rows.Next() {
		var e craft.Edge
		if err := rows.Scan(&e.A, &e.B, &e.Result); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}
