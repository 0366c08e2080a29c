package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grammatch/internal/batch"
	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/testutil"
)

func evaluateScenarioA(t *testing.T, candidates ...string) (*grammar.Grammar, *batch.Report) {
	t.Helper()
	g := testutil.ScenarioA()
	report, err := batch.Evaluate(context.Background(), g, 0, candidates)
	require.NoError(t, err)
	return g, report
}

func TestFromReport(t *testing.T) {
	g := grammar.MustNew(
		grammar.NewRule(0, grammar.Seq(1), grammar.Seq(2, 9)),
		grammar.NewRule(1, grammar.Lit('a')),
		grammar.NewRule(2, grammar.Lit('b')),
	)
	report, err := batch.Evaluate(context.Background(), g, 0, []string{"a", "aa", "b"})
	require.NoError(t, err)

	run, verdicts := FromReport("run-1", "part1", g, report)

	assert.Equal(t, Run{
		ID:          "run-1",
		GrammarHash: g.Hash(),
		Label:       "part1",
		Start:       0,
		Strategy:    "greedy",
		Candidates:  3,
		Accepted:    1,
		Errors:      1,
	}, run)
	assert.Equal(t, []Verdict{
		{Index: 0, Candidate: "a", Accepted: true, Matched: true},
		{Index: 1, Candidate: "aa", Matched: true, Remaining: "a"},
		{Index: 2, Candidate: "b", Error: "unresolved rule 9 (referenced from rule 0)"},
	}, verdicts)
}

func TestRecordReport_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g, report := evaluateScenarioA(t, "ab", "abb", "ba")

	run, err := s.RecordReport(ctx, testutil.NewFixedRunIDGenerator("run-a"), "scenario-a", g, report)
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)

	got, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.Equal(t, 3, got.Candidates)
	assert.Equal(t, 1, got.Accepted)

	verdicts, err := s.ReadVerdicts(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, []Verdict{
		{Index: 0, Candidate: "ab", Accepted: true, Matched: true},
		{Index: 1, Candidate: "abb", Matched: true, Remaining: "b"},
		{Index: 2, Candidate: "ba"},
	}, verdicts)

	source, err := s.ReadGrammarSource(ctx, g.Hash())
	require.NoError(t, err)
	assert.Equal(t, g.String(), source)
}

// TestReadRuns_OrderedBySeq tests that runs come back in insertion order
// regardless of their ids.
func TestReadRuns_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := NewFixedGenerator("run-z", "run-a", "run-m")
	g, report := evaluateScenarioA(t, "ab")

	for i := 0; i < 3; i++ {
		_, err := s.RecordReport(ctx, gen, "", g, report)
		require.NoError(t, err)
	}

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	var ids []string
	for i, r := range runs {
		ids = append(ids, r.ID)
		assert.Equal(t, int64(i+1), r.Seq)
	}
	assert.Equal(t, []string{"run-z", "run-a", "run-m"}, ids)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM grammars").Scan(&count))
	assert.Equal(t, 1, count, "runs over one grammar share its row")
}

func TestRunsForGrammar(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := NewFixedGenerator("run-1", "run-2")

	g, report := evaluateScenarioA(t, "ab")
	_, err := s.RecordReport(ctx, gen, "", g, report)
	require.NoError(t, err)

	other := testutil.OneOrMore()
	otherReport, err := batch.Evaluate(ctx, other, 0, []string{"a"})
	require.NoError(t, err)
	_, err = s.RecordReport(ctx, gen, "", other, otherReport)
	require.NoError(t, err)

	runs, err := s.RunsForGrammar(ctx, other.Hash())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)
}

func TestRunsForGrammar_CanonicallyEquivalentGrammarsKeptApart(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := NewFixedGenerator("run-angstrom", "run-a-ring")

	angstrom := grammar.MustNew(grammar.NewRule(0, grammar.Lit('\u212B')))
	aRing := grammar.MustNew(grammar.NewRule(0, grammar.Lit('\u00C5')))
	for _, g := range []*grammar.Grammar{angstrom, aRing} {
		report, err := batch.Evaluate(ctx, g, 0, []string{"\u212B"})
		require.NoError(t, err)
		_, err = s.RecordReport(ctx, gen, "", g, report)
		require.NoError(t, err)
	}

	for _, tt := range []struct {
		g        *grammar.Grammar
		runID    string
		accepted int
	}{
		{angstrom, "run-angstrom", 1},
		{aRing, "run-a-ring", 0},
	} {
		runs, err := s.RunsForGrammar(ctx, tt.g.Hash())
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, tt.runID, runs[0].ID)
		assert.Equal(t, tt.accepted, runs[0].Accepted)

		source, err := s.ReadGrammarSource(ctx, tt.g.Hash())
		require.NoError(t, err)
		assert.Equal(t, tt.g.String(), source)
	}
}

func TestReadRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ReadRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReadVerdicts_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	verdicts, err := s.ReadVerdicts(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

// TestWriteRun_Atomic tests that a failed verdict insert leaves no run behind.
func TestWriteRun_Atomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	verdicts := []Verdict{
		{Index: 0, Candidate: "a"},
		{Index: 0, Candidate: "b"},
	}
	_, err := s.WriteRun(ctx, createTestRun("run-1", "hash-1"), "0: \"a\"\n", verdicts)
	require.Error(t, err)

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
