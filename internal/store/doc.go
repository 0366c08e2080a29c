// Package store provides SQLite-backed storage for evaluation runs.
//
// A run records one pass of a grammar over a list of candidates:
//   - Grammars: canonical text keyed by grammar.Hash, stored once
//   - Runs: start rule, strategy, and counts, ordered by seq
//   - Verdicts: one row per candidate, ordered by input position
//
// Runs are append-only. WriteRun stores a run and its verdicts in a single
// transaction, so readers never see a run without its verdicts.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
