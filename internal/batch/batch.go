// Package batch evaluates many candidate strings against one grammar.
//
// Candidates are independent, so Evaluate fans them out over a bounded pool
// of goroutines. The grammar is only read; results come back in input order
// regardless of the number of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/recognizer"
)

// Verdict is the result for one candidate.
type Verdict struct {
	Index     int    // Position in the input slice
	Candidate string // The candidate itself
	Accepted  bool   // Start rule derived the whole candidate
	Matched   bool   // Start rule derived some prefix
	Remaining string // Unconsumed suffix when Matched
	Err       error  // Recognition error, e.g. an unresolved rule
}

// Report collects the verdicts of one evaluation pass.
type Report struct {
	Start    grammar.RuleID
	Strategy recognizer.Strategy
	Verdicts []Verdict
}

// Count returns the number of accepted candidates.
func (r *Report) Count() int {
	n := 0
	for _, v := range r.Verdicts {
		if v.Accepted {
			n++
		}
	}
	return n
}

// Accepted returns the accepted candidates in input order.
func (r *Report) Accepted() []string {
	var out []string
	for _, v := range r.Verdicts {
		if v.Accepted {
			out = append(out, v.Candidate)
		}
	}
	return out
}

// Err joins the errors of all failed candidates, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, v := range r.Verdicts {
		if v.Err != nil {
			errs = append(errs, fmt.Errorf("candidate %d %q: %w", v.Index, v.Candidate, v.Err))
		}
	}
	return errors.Join(errs...)
}

type config struct {
	workers int
	recOpts []recognizer.Option
	logger  *slog.Logger
}

// Option configures Evaluate and CountMatches.
type Option func(*config)

// WithWorkers bounds the number of candidates evaluated concurrently.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithRecognizerOptions passes options through to recognizer.New.
func WithRecognizerOptions(opts ...recognizer.Option) Option {
	return func(c *config) {
		c.recOpts = append(c.recOpts, opts...)
	}
}

// WithLogger sets the logger for per-candidate diagnostics.
// By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Evaluate checks every candidate against rule start of g.
//
// A recognition error affects only its own candidate: it is stored on the
// verdict and reported by Report.Err. The returned error is non-nil only
// when ctx is cancelled before all candidates were evaluated.
func Evaluate(ctx context.Context, g *grammar.Grammar, start grammar.RuleID, candidates []string, opts ...Option) (*Report, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	rec := recognizer.New(g, cfg.recOpts...)
	report := &Report{
		Start:    start,
		Strategy: rec.Strategy(),
		Verdicts: make([]Verdict, len(candidates)),
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.workers)

	for i, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		i, c := i, c
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Verdicts[i] = evaluateOne(rec, start, i, c)
			if err := report.Verdicts[i].Err; err != nil {
				cfg.logger.Warn("candidate failed", "index", i, "candidate", c, "error", err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}

	cfg.logger.Debug("evaluation complete",
		"start", int(start),
		"strategy", report.Strategy.String(),
		"candidates", len(candidates),
		"accepted", report.Count(),
		"workers", cfg.workers,
	)
	return report, nil
}

// CountMatches returns how many candidates rule start of g derives
// completely.
//
// If any candidate hit a recognition error the count covers the remaining
// candidates and the error is the joined per-candidate errors.
func CountMatches(ctx context.Context, g *grammar.Grammar, start grammar.RuleID, candidates []string, opts ...Option) (int, error) {
	report, err := Evaluate(ctx, g, start, candidates, opts...)
	if err != nil {
		return 0, err
	}
	return report.Count(), report.Err()
}

func evaluateOne(rec *recognizer.Recognizer, start grammar.RuleID, index int, candidate string) Verdict {
	v := Verdict{Index: index, Candidate: candidate}
	out, err := rec.Match(start, candidate)
	if err != nil {
		v.Err = err
		return v
	}
	v.Matched = out.Matched
	v.Remaining = out.Remaining
	v.Accepted = out.Complete()
	return v
}
