package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/grammatch/internal/batch"
	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/loader"
	"github.com/roach88/grammatch/internal/recognizer"
	"github.com/roach88/grammatch/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Start        int
	Strategy     string
	Workers      int
	MaxDepth     int
	Normalize    bool
	ShowAccepted bool
	RewriteLoops bool
	Database     string

	// IDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	File       string       `json:"file"`
	Start      int          `json:"start"`
	Strategy   string       `json:"strategy"`
	Candidates int          `json:"candidates"`
	Passes     []PassResult `json:"passes"`
}

// PassResult summarises one evaluation of the candidates.
type PassResult struct {
	Label       string   `json:"label"` // "base" or "loops"
	GrammarHash string   `json:"grammar_hash"`
	Accepted    int      `json:"accepted"`
	Matches     []string `json:"matches,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	RunID       string   `json:"run_id,omitempty"`
}

type checkPass struct {
	label string
	g     *grammar.Grammar
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return newCheckCommand(&CheckOptions{RootOptions: rootOpts})
}

// newCheckCommand builds the check command around opts, so tests can set
// fields that have no flag.
func newCheckCommand(opts *CheckOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Count candidates derived by the start rule",
		Long: `Load a grammar and its candidates and count the candidates that the
start rule derives completely.

The input is either the text format (rules, a blank line, one candidate per
line) or a .cue grammar file. With --rewrite-loops the candidates are checked
a second time after rules 8 and 11 are replaced by
  8: 42 | 42 8
  11: 42 31 | 42 11 31

Exit codes:
  0 - Every candidate was checked
  1 - One or more candidates hit a recognition error
  2 - Command error (unreadable input, bad flags, database error)

Examples:
  grammatch check input.txt
  grammatch check input.txt --rewrite-loops --strategy exhaustive
  grammatch check grammar.cue --show-accepted --format json
  grammatch check input.txt --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Start, "start", 0, "start rule (default: the grammar's own start rule)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "greedy", "matching strategy (greedy|exhaustive)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "candidates checked concurrently (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "recursion depth limit (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Normalize, "nfc", false, "apply Unicode NFC to literals and candidates")
	cmd.Flags().BoolVar(&opts.ShowAccepted, "show-accepted", false, "list accepted candidates")
	cmd.Flags().BoolVar(&opts.RewriteLoops, "rewrite-loops", false, "also check with rules 8 and 11 rewritten into loops")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	strategy, err := recognizer.ParseStrategy(opts.Strategy)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	if opts.Start < 0 {
		err := fmt.Errorf("start rule must be non-negative, got %d", opts.Start)
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	doc, err := LoadDocument(path, loader.Options{Normalize: opts.Normalize})
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d rule(s) and %d candidate(s) from %s", doc.Grammar.Len(), len(doc.Candidates), path)

	start := doc.Start
	if cmd.Flags().Changed("start") {
		start = grammar.RuleID(opts.Start)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := CheckResult{
		File:       path,
		Start:      int(start),
		Strategy:   strategy.String(),
		Candidates: len(doc.Candidates),
	}

	passes := []checkPass{{"base", doc.Grammar}}
	if opts.RewriteLoops {
		looped, err := doc.Grammar.WithLoops()
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to rewrite rules", err)
		}
		passes = append(passes, checkPass{"loops", looped})
	}

	failed := 0
	for _, p := range passes {
		report, err := batch.Evaluate(ctx, p.g, start, doc.Candidates,
			batch.WithWorkers(opts.Workers),
			batch.WithRecognizerOptions(
				recognizer.WithStrategy(strategy),
				recognizer.WithMaxDepth(opts.MaxDepth),
			),
			batch.WithLogger(logger),
		)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "check interrupted", err)
		}

		pass := PassResult{
			Label:       p.label,
			GrammarHash: p.g.Hash(),
			Accepted:    report.Count(),
		}
		if opts.ShowAccepted {
			pass.Matches = report.Accepted()
		}
		for _, v := range report.Verdicts {
			if v.Err != nil {
				pass.Errors = append(pass.Errors, fmt.Sprintf("candidate %d %q: %v", v.Index, v.Candidate, v.Err))
			}
		}
		failed += len(pass.Errors)

		if st != nil {
			gen := opts.IDGenerator
			if gen == nil {
				gen = store.UUIDv7Generator{}
			}
			run, err := st.RecordReport(ctx, gen, p.label, p.g, report)
			if err != nil {
				_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to record run", err)
			}
			pass.RunID = run.ID
			formatter.VerboseLog("Recorded run %s (seq %d)", run.ID, run.Seq)
		}

		logger.Debug("pass complete", "label", p.label, "accepted", pass.Accepted, "errors", len(pass.Errors))
		result.Passes = append(result.Passes, pass)
	}

	if failed > 0 {
		message := fmt.Sprintf("%d candidate check(s) hit a recognition error", failed)
		if formatter.Format == "json" {
			if err := formatter.Failure(ErrCodeRecognition, message, result); err != nil {
				return err
			}
		} else {
			outputCheckText(formatter, result)
		}
		return NewExitError(ExitFailure, message)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputCheckText(formatter, result)
	return nil
}

// outputCheckText prints one summary line per pass, followed by accepted
// candidates and errors.
func outputCheckText(formatter *OutputFormatter, result CheckResult) {
	w := formatter.Writer
	for _, p := range result.Passes {
		fmt.Fprintf(w, "%s: %d of %d candidate(s) accepted\n", p.Label, p.Accepted, result.Candidates)
		for _, m := range p.Matches {
			fmt.Fprintf(w, "  ✓ %s\n", m)
		}
		for _, e := range p.Errors {
			fmt.Fprintf(w, "  ✗ %s\n", e)
		}
		if p.RunID != "" {
			fmt.Fprintf(w, "  run %s\n", p.RunID)
		}
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
