package store

import (
	"context"
	"database/sql"
	"fmt"
)

const runColumns = `seq, id, grammar_hash, label, start_rule, strategy, candidates, accepted, errors`

// ReadRuns returns every run ordered by seq.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// RunsForGrammar returns the runs over the grammar with the given hash,
// ordered by seq.
func (s *Store) RunsForGrammar(ctx context.Context, hash string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE grammar_hash = ?
		ORDER BY seq ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query runs for grammar: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// ReadRun retrieves a single run by id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ReadVerdicts returns the verdicts of a run in candidate order.
//
// Returns an empty slice (not nil) if the run has no verdicts or does not
// exist.
func (s *Store) ReadVerdicts(ctx context.Context, runID string) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, candidate, accepted, matched, remaining, error
		FROM verdicts
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []Verdict{}
	for rows.Next() {
		var v Verdict
		if err := rows.Scan(&v.Index, &v.Candidate, &v.Accepted, &v.Matched, &v.Remaining, &v.Error); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		verdicts = append(verdicts, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}

	return verdicts, nil
}

// ReadGrammarSource returns the canonical text of a stored grammar.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadGrammarSource(ctx context.Context, hash string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx, `
		SELECT source FROM grammars WHERE hash = ?
	`, hash).Scan(&source)
	if err != nil {
		return "", fmt.Errorf("read grammar %s: %w", hash, err)
	}
	return source, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.Seq,
		&r.ID,
		&r.GrammarHash,
		&r.Label,
		&r.Start,
		&r.Strategy,
		&r.Candidates,
		&r.Accepted,
		&r.Errors,
	)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
