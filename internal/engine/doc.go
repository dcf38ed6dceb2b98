// Package engine drives exploration of the crafting graph.
//
// ARCHITECTURE:
//
// Single Writer:
// One Driver owns the dedup cache, the glyph table and the edge log for a
// session. Every probe goes through Driver.Resolve, so the oracle sees at
// most one outstanding call and the log has exactly one writer.
//
// Probe Flow:
//  1. Resolve normalizes the pair and consults the DedupCache
//  2. On a miss the oracle is called with cancellation detached
//  3. The edge is appended durably, then cache and glyph table are updated
//  4. A fixed delay follows every oracle call, never a cache hit
//
// Policy and Loop:
// Policy implements repeated doubling, repeated addition and explore.
// Explorer serves queued user pairs first (FIFO), then samples random pairs
// from a seeded source. Chains yield to queued user pairs.
//
// Cancellation:
// The context is checked between probes only. An oracle call that has
// started always completes and is logged, so a graceful stop leaves a
// consistent log.
package engine
