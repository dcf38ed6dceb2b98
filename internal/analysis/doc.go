// Package analysis runs offline analyses over a frozen edge log.
//
// All functions are pure: they take the edges in log order and the seed
// set, and never touch the oracle or the log itself.
//
//   - DiscoveryOrder: breadth-first order of elements from the seeds, where
//     an element is placed once both inputs of one of its edges are placed
//   - SolveDepths: minimum combination depth per element by fixed-point
//     relaxation, with one minimal-depth witness edge per element
//   - Reconstruct: the ordered build sequence for a set of targets
//   - Stats: per-element combination counts
package analysis
