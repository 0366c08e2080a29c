package batch

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/recognizer"
	"github.com/roach88/grammatch/internal/testutil"
)

func TestCountMatches_ScenarioA(t *testing.T) {
	n, err := CountMatches(context.Background(), testutil.ScenarioA(), 0, []string{"ab", "ba", "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCountMatches_Empty(t *testing.T) {
	n, err := CountMatches(context.Background(), testutil.ScenarioA(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestCountMatches_Idempotent tests that repeated passes over the same input
// agree.
func TestCountMatches_Idempotent(t *testing.T) {
	doc := testutil.ParseDocument(t, testutil.LoopExample)
	ctx := context.Background()

	first, err := CountMatches(ctx, doc.Grammar, doc.Start, doc.Candidates)
	require.NoError(t, err)
	second, err := CountMatches(ctx, doc.Grammar, doc.Start, doc.Candidates)
	require.NoError(t, err)

	assert.Equal(t, 3, first)
	assert.Equal(t, first, second)
}

func TestEvaluate_Verdicts(t *testing.T) {
	report, err := Evaluate(context.Background(), testutil.ScenarioA(), 0, []string{"ab", "abb", "ba"})
	require.NoError(t, err)

	assert.Equal(t, []Verdict{
		{Index: 0, Candidate: "ab", Accepted: true, Matched: true},
		{Index: 1, Candidate: "abb", Matched: true, Remaining: "b"},
		{Index: 2, Candidate: "ba"},
	}, report.Verdicts)
	assert.Equal(t, []string{"ab"}, report.Accepted())
	assert.Equal(t, 1, report.Count())
	assert.Equal(t, recognizer.Greedy, report.Strategy)
	assert.NoError(t, report.Err())
}

// TestEvaluate_OrderIndependentOfWorkers tests that results come back in
// input order for any pool size.
func TestEvaluate_OrderIndependentOfWorkers(t *testing.T) {
	doc := testutil.ParseDocument(t, testutil.LoopExample)
	looped, err := doc.Grammar.WithLoops()
	require.NoError(t, err)

	opts := WithRecognizerOptions(recognizer.WithStrategy(recognizer.Exhaustive))

	serial, err := Evaluate(context.Background(), looped, doc.Start, doc.Candidates, opts, WithWorkers(1))
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		parallel, err := Evaluate(context.Background(), looped, doc.Start, doc.Candidates, opts, WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, serial.Verdicts, parallel.Verdicts, "workers=%d", workers)
	}

	assert.Equal(t, testutil.LoopExampleLoopMatches, serial.Accepted())
	assert.Equal(t, recognizer.Exhaustive, serial.Strategy)
}

// TestEvaluate_UnresolvedRuleIsNotRejection tests that a missing rule is
// reported on its candidate instead of counting as a failed match.
func TestEvaluate_UnresolvedRuleIsNotRejection(t *testing.T) {
	g := grammar.MustNew(
		grammar.NewRule(0, grammar.Seq(1), grammar.Seq(2, 3)),
		grammar.NewRule(1, grammar.Lit('a')),
		grammar.NewRule(2, grammar.Lit('b')),
	)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	report, err := Evaluate(context.Background(), g, 0, []string{"a", "bx", "c"}, WithLogger(logger))
	require.NoError(t, err)

	assert.True(t, report.Verdicts[0].Accepted)
	assert.NoError(t, report.Verdicts[0].Err)

	assert.False(t, report.Verdicts[1].Accepted)
	assert.True(t, grammar.IsUnresolved(report.Verdicts[1].Err))

	assert.False(t, report.Verdicts[2].Accepted)
	assert.NoError(t, report.Verdicts[2].Err)

	require.Error(t, report.Err())
	assert.True(t, grammar.IsUnresolved(report.Err()))
	assert.Contains(t, report.Err().Error(), `candidate 1 "bx": unresolved rule 3 (referenced from rule 0)`)
	assert.Contains(t, logs.String(), "candidate failed")

	n, err := CountMatches(context.Background(), g, 0, []string{"a", "bx", "c"})
	assert.Equal(t, 1, n)
	assert.True(t, grammar.IsUnresolved(err))
}

func TestEvaluate_DepthLimit(t *testing.T) {
	g := grammar.MustNew(
		grammar.NewRule(0, grammar.Seq(0, 1)),
		grammar.NewRule(1, grammar.Lit('a')),
	)

	report, err := Evaluate(context.Background(), g, 0, []string{"a"},
		WithRecognizerOptions(recognizer.WithMaxDepth(10)))
	require.NoError(t, err)
	assert.True(t, recognizer.IsDepthExceeded(report.Err()))
}

func TestEvaluate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Evaluate(ctx, testutil.ScenarioA(), 0, []string{"ab"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
