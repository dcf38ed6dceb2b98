// Package harness runs exploration scenarios offline.
//
// A scenario is a YAML file naming the seeds, a script of oracle answers,
// user requests to queue and a step bound. The harness runs the real
// driver, policy and exploration loop against that script, then runs the
// discovery order, depth and reconstruction analyses over the resulting
// log.
//
// # Scenario Format
//
//	name: steam_and_mountains
//	seeds:
//	  - {name: Water, glyph: "💧"}
//	  - {name: Fire, glyph: "🔥"}
//	oracle:
//	  - {pair: [Fire, Water], result: Steam, emoji: "💨"}
//	  - {pair: [Rain, Rain], error: decode}
//	requests:
//	  - [Fire, Water]
//	steps: 1
//	targets: [Steam]
//	assertions:
//	  - type: trace_contains
//	    pair: [Water, Fire]
//	    result: Steam
//
// Assertion types:
//   - discovered: elements are in the discovered list
//   - probe_count: number of probes, optionally of one kind
//   - trace_contains: a probe answered a pair with a result
//   - trace_order: results first appear in the given order
//   - depth: an element's minimum depth, -1 for unreachable
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite log, a fixed session token, no
// rate-limit delay and a seeded sampling source. Steps bound the loop, so
// a scenario whose requests cover every step never samples at all.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/steam.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	harness.Format(os.Stdout, scenario, result)
package harness
