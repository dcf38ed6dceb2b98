package craft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotRecord is returned for lines that are not JSON arrays at all
// (blank lines, comments, stray text). Readers skip them silently.
var ErrNotRecord = errors.New("not a record line")

// Records are JSON arrays with ", " separators and unescaped non-ASCII text,
// so logs written here and logs written by earlier tools are interchangeable.

// MarshalEdge encodes an edge as a newline-terminated `["a", "b", "c"]` line.
func MarshalEdge(e Edge) ([]byte, error) {
	return marshalLine(e.A, e.B, e.Result)
}

// MarshalElement encodes a glyph record as a newline-terminated `[glyph, name]` line.
func MarshalElement(el Element) ([]byte, error) {
	return marshalLine(el.Glyph, el.Name)
}

// MarshalDiscovery encodes a discovery as `[a, b, {"result": .., "emoji": .., "isNew": ..}]`.
func MarshalDiscovery(d Discovery) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for _, s := range []string{d.Pair.A, d.Pair.B} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
		buf.WriteString(", ")
	}
	buf.WriteString(`{"result": `)
	if err := writeString(&buf, d.Answer.Result); err != nil {
		return nil, err
	}
	buf.WriteString(`, "emoji": `)
	if err := writeString(&buf, d.Answer.Emoji); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `, "isNew": %t}]`, d.Answer.IsNew)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UnmarshalEdge decodes an edge line. Inputs are returned in canonical order
// even if the record was written otherwise.
func UnmarshalEdge(line []byte) (Edge, error) {
	fields, err := decodeArray(line)
	if err != nil {
		return Edge{}, err
	}
	if len(fields) != 3 {
		return Edge{}, fmt.Errorf("edge record has %d fields, want 3", len(fields))
	}
	var s [3]string
	for i := range s {
		if err := json.Unmarshal(fields[i], &s[i]); err != nil {
			return Edge{}, fmt.Errorf("edge field %d: %w", i, err)
		}
	}
	return NewEdge(s[0], s[1], s[2]), nil
}

// UnmarshalElement decodes a `[glyph, name, ...]` line. Trailing fields are
// ignored.
func UnmarshalElement(line []byte) (Element, error) {
	fields, err := decodeArray(line)
	if err != nil {
		return Element{}, err
	}
	if len(fields) < 2 {
		return Element{}, fmt.Errorf("element record has %d fields, want at least 2", len(fields))
	}
	var el Element
	if err := json.Unmarshal(fields[0], &el.Glyph); err != nil {
		return Element{}, fmt.Errorf("element glyph: %w", err)
	}
	if err := json.Unmarshal(fields[1], &el.Name); err != nil {
		return Element{}, fmt.Errorf("element name: %w", err)
	}
	return el, nil
}

// UnmarshalDiscovery decodes a discovery side-log line.
func UnmarshalDiscovery(line []byte) (Discovery, error) {
	fields, err := decodeArray(line)
	if err != nil {
		return Discovery{}, err
	}
	if len(fields) != 3 {
		return Discovery{}, fmt.Errorf("discovery record has %d fields, want 3", len(fields))
	}
	var a, b string
	if err := json.Unmarshal(fields[0], &a); err != nil {
		return Discovery{}, fmt.Errorf("discovery input: %w", err)
	}
	if err := json.Unmarshal(fields[1], &b); err != nil {
		return Discovery{}, fmt.Errorf("discovery input: %w", err)
	}
	var answer Combination
	if err := json.Unmarshal(fields[2], &answer); err != nil {
		return Discovery{}, fmt.Errorf("discovery answer: %w", err)
	}
	return Discovery{Pair: NewPair(a, b), Answer: answer}, nil
}

func decodeArray(line []byte) ([]json.RawMessage, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '[' {
		return nil, ErrNotRecord
	}
	var fields []json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return fields, nil
}

func marshalLine(fields ...string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, s := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
