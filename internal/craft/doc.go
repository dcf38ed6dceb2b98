// Package craft provides the core record types of the crafting graph.
//
// This package contains type definitions and their line codec only. All
// other internal packages import craft; craft imports nothing internal.
//
// Key design constraints:
//   - Combinations are unordered: every Pair is canonical (A <= B) before it
//     is looked up, stored or logged
//   - Identity is by element name; a glyph is display metadata only
//   - Records are immutable once created
package craft
