package store

import (
	"github.com/roach88/grammatch/internal/batch"
	"github.com/roach88/grammatch/internal/grammar"
)

// Run is the summary row of one evaluation pass.
type Run struct {
	Seq         int64  // Assigned by WriteRun; zero before
	ID          string // From an IDGenerator
	GrammarHash string // grammar.Hash of the evaluated grammar
	Label       string // Free-form, e.g. "part1" or a scenario name
	Start       int
	Strategy    string
	Candidates  int
	Accepted    int
	Errors      int
}

// Verdict is the stored result for one candidate.
type Verdict struct {
	Index     int
	Candidate string
	Accepted  bool
	Matched   bool
	Remaining string
	Error     string // Empty when recognition succeeded
}

// FromReport converts a batch report into a Run and its verdicts.
// The run has no Seq yet.
func FromReport(id, label string, g *grammar.Grammar, report *batch.Report) (Run, []Verdict) {
	run := Run{
		ID:          id,
		GrammarHash: g.Hash(),
		Label:       label,
		Start:       int(report.Start),
		Strategy:    report.Strategy.String(),
		Candidates:  len(report.Verdicts),
	}

	verdicts := make([]Verdict, len(report.Verdicts))
	for i, v := range report.Verdicts {
		verdicts[i] = Verdict{
			Index:     v.Index,
			Candidate: v.Candidate,
			Accepted:  v.Accepted,
			Matched:   v.Matched,
			Remaining: v.Remaining,
		}
		if v.Accepted {
			run.Accepted++
		}
		if v.Err != nil {
			verdicts[i].Error = v.Err.Error()
			run.Errors++
		}
	}
	return run, verdicts
}
