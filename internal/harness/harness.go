package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/grammatch/internal/batch"
	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/loader"
	"github.com/roach88/grammatch/internal/recognizer"
	"github.com/roach88/grammatch/internal/store"
	"github.com/roach88/grammatch/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a fresh store with a fixed run id.
type Harness struct {
	store  *store.Store
	runGen *testutil.FixedRunIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the grammar and apply any rewrite
// 3. Evaluate every candidate and record the run
// 4. Read the verdicts back from the store
// 5. Check the expect clause and return the result
//
// The returned error reports problems with the scenario itself (bad
// grammar, failed rewrite). Unmet expectations are reported on the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runGen: testutil.NewFixedRunIDGenerator(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	doc, err := loadGrammar(scenario)
	if err != nil {
		return nil, err
	}

	g, err := applyRewrite(doc.Grammar, scenario)
	if err != nil {
		return nil, err
	}

	start := doc.Start
	if scenario.Start != nil {
		start = grammar.RuleID(*scenario.Start)
	}

	strategy, err := recognizer.ParseStrategy(scenario.Strategy)
	if err != nil {
		return nil, err
	}

	candidates := append(append([]string{}, doc.Candidates...), scenario.Candidates...)

	report, err := batch.Evaluate(ctx, g, start, candidates,
		batch.WithRecognizerOptions(
			recognizer.WithStrategy(strategy),
			recognizer.WithMaxDepth(scenario.MaxDepth),
		),
		batch.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate candidates: %w", err)
	}

	run, err := h.store.RecordReport(ctx, h.runGen, scenario.Name, g, report)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	verdicts, err := h.store.ReadVerdicts(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read verdicts: %w", err)
	}

	result := NewResult()
	result.RunID = run.ID
	result.GrammarHash = run.GrammarHash
	result.Start = run.Start
	result.Strategy = run.Strategy
	for _, v := range verdicts {
		result.AddVerdict(VerdictEvent{
			Index:     v.Index,
			Candidate: v.Candidate,
			Accepted:  v.Accepted,
			Matched:   v.Matched,
			Remaining: v.Remaining,
			Error:     v.Error,
		})
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"run_id", run.ID,
		"accepted", result.Count,
		"pass", result.Pass,
	)

	return result, nil
}

func loadGrammar(s *Scenario) (*loader.Document, error) {
	if s.GrammarFile != "" {
		doc, err := loader.LoadFile(s.GrammarFile, loader.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to load grammar: %w", err)
		}
		return doc, nil
	}

	doc, err := loader.ParseText(strings.NewReader(s.Grammar), loader.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse grammar: %w", err)
	}
	return doc, nil
}

func applyRewrite(g *grammar.Grammar, s *Scenario) (*grammar.Grammar, error) {
	if s.RewriteLoops {
		out, err := g.WithLoops()
		if err != nil {
			return nil, fmt.Errorf("failed to apply loop rewrite: %w", err)
		}
		return out, nil
	}

	if len(s.Rewrite) == 0 {
		return g, nil
	}
	if len(s.Rewrite) != 2 {
		return nil, fmt.Errorf("rewrite needs exactly two rules, got %d", len(s.Rewrite))
	}

	var rules [2]grammar.Rule
	for i, line := range s.Rewrite {
		r, err := loader.ParseRule(line)
		if err != nil {
			return nil, fmt.Errorf("rewrite[%d]: %w", i, err)
		}
		rules[i] = r
	}

	out, err := g.Rewrite(rules[0], rules[1])
	if err != nil {
		return nil, fmt.Errorf("failed to apply rewrite: %w", err)
	}
	return out, nil
}
