package store

import (
	"context"
	"fmt"

	"github.com/roach88/craftgraph/internal/craft"
)

// AppendEdge inserts an edge record.
// Uses ON CONFLICT(input_a, input_b) DO NOTHING: the first answer recorded
// for a pair wins and later writes for the same pair are silently ignored.
func (s *Store) AppendEdge(ctx context.Context, e craft.Edge) error {
	_, err := s.WriteEdge(ctx, e)
	return err
}

// WriteEdge is AppendEdge that also reports whether a row was inserted.
func (s *Store) WriteEdge(ctx context.Context, e craft.Edge) (inserted bool, err error) {
	if !e.Canonical() {
		e = craft.NewEdge(e.A, e.B, e.Result)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (input_a, input_b, result)
		VALUES (?, ?, ?)
		ON CONFLICT(input_a, input_b) DO NOTHING
	`, e.A, e.B, e.Result)
	if err != nil {
		return false, fmt.Errorf("write edge: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write edge: rows affected: %w", err)
	}
	return rows > 0, nil
}

// AppendElement inserts a glyph record.
func (s *Store) AppendElement(ctx context.Context, el craft.Element) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO elements (name, glyph) VALUES (?, ?)`, el.Name, el.Glyph)
	if err != nil {
		return fmt.Errorf("write element: %w", err)
	}
	return nil
}

// AppendDiscovery inserts a discovery record.
func (s *Store) AppendDiscovery(ctx context.Context, d craft.Discovery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discoveries (input_a, input_b, result, emoji, is_new)
		VALUES (?, ?, ?, ?, ?)
	`, d.Pair.A, d.Pair.B, d.Answer.Result, d.Answer.Emoji, d.Answer.IsNew)
	if err != nil {
		return fmt.Errorf("write discovery: %w", err)
	}
	return nil
}
