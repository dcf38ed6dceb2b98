// Package store provides durable storage for the crafting edge log.
//
// The log is append-only and holds three record kinds:
//   - Edges: every (a, b) -> c combination ever observed, in oracle-call order
//   - Elements: the glyph table, one record per first-seen element
//   - Discoveries: full oracle answers flagged as first-ever discoveries
//
// The edge sequence is the single source of truth. Every in-memory index
// (dedup cache, glyph table, analysis adjacency) is rebuilt from a Replay.
//
// # Backends
//
// FileLog keeps newline-delimited JSON files in a data directory. Every
// append is a single write of a complete, newline-terminated line on an
// O_APPEND descriptor, so a concurrent reader never observes a torn record
// and a crash loses at most the record being written.
//
// SQLiteLog keeps the same records in SQLite:
//   - WAL mode: readers run while the explorer writes
//   - UNIQUE(input_a, input_b): at most one edge per unordered pair
//   - seq INTEGER keys: append order, never timestamps
//
// Replay skips malformed records instead of failing; the number skipped is
// reported on the Snapshot.
package store
