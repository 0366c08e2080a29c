// Package harness runs grammar recognition scenarios described in YAML.
//
// # Scenario Format
//
//	name: scenario_a
//	description: "Sequence of two literals"
//	grammar: |
//	  0: 1 2
//	  1: "a"
//	  2: "b"
//	strategy: greedy          # or exhaustive
//	rewrite_loops: false      # replace rules 8 and 11 with their loops
//	rewrite:                  # or replace two rules explicitly
//	  - "0: 1 2 | 1 2 0"
//	  - "2: \"b\""
//	candidates: ["ab", "ba", "a"]
//	expect:
//	  count: 1
//	  accepted: ["ab"]
//	  rejected: ["ba"]
//
// grammar_file may replace grammar; it names a text or .cue grammar relative
// to the scenario file.
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with a fixed run id
// (run_id, or "test-run-default"). Verdicts are read back from the store in
// candidate order, so snapshots are identical across runs and across worker
// counts. RunWithGolden compares the snapshot with testdata/golden.
package harness
