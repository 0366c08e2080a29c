package store

import (
	"context"
	"fmt"

	"github.com/roach88/grammatch/internal/batch"
	"github.com/roach88/grammatch/internal/grammar"
)

// WriteRun stores a run, the source of its grammar, and its verdicts in one
// transaction, and returns the run's seq.
//
// The grammar row is keyed by run.GrammarHash and written with
// ON CONFLICT DO NOTHING, so repeated runs over one grammar share it.
// A run id that already exists is an error.
func (s *Store) WriteRun(ctx context.Context, run Run, grammarSource string, verdicts []Verdict) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO grammars (hash, source)
		VALUES (?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, run.GrammarHash, grammarSource); err != nil {
		return 0, fmt.Errorf("write run: insert grammar: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, grammar_hash, label, start_rule, strategy, candidates, accepted, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.GrammarHash,
		run.Label,
		run.Start,
		run.Strategy,
		run.Candidates,
		run.Accepted,
		run.Errors,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: insert run %s: %w", run.ID, err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write run: get seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts
		(run_id, idx, candidate, accepted, matched, remaining, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("write run: prepare verdicts: %w", err)
	}
	defer stmt.Close()

	for _, v := range verdicts {
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			v.Index,
			v.Candidate,
			v.Accepted,
			v.Matched,
			v.Remaining,
			v.Error,
		); err != nil {
			return 0, fmt.Errorf("write run: insert verdict %d: %w", v.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}

	return seq, nil
}

// RecordReport stores a batch report as a new run with an id from gen.
// The returned Run has its Seq set.
func (s *Store) RecordReport(ctx context.Context, gen IDGenerator, label string, g *grammar.Grammar, report *batch.Report) (Run, error) {
	run, verdicts := FromReport(gen.Generate(), label, g, report)

	seq, err := s.WriteRun(ctx, run, g.String(), verdicts)
	if err != nil {
		return Run{}, err
	}
	run.Seq = seq
	return run, nil
}
