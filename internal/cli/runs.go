package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/grammatch/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string
	Grammar  string
}

// RunSummary is the JSON form of a stored run.
type RunSummary struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	GrammarHash string `json:"grammar_hash"`
	Label       string `json:"label"`
	Start       int    `json:"start"`
	Strategy    string `json:"strategy"`
	Candidates  int    `json:"candidates"`
	Accepted    int    `json:"accepted"`
	Errors      int    `json:"errors"`
}

// RunVerdict is the JSON form of a stored verdict.
type RunVerdict struct {
	Index     int    `json:"index"`
	Candidate string `json:"candidate"`
	Accepted  bool   `json:"accepted"`
	Matched   bool   `json:"matched"`
	Remaining string `json:"remaining,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RunDetail is one run with its verdicts.
type RunDetail struct {
	Run      RunSummary   `json:"run"`
	Verdicts []RunVerdict `json:"verdicts"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded by check",
		Long: `List the runs recorded in a database by check --db, oldest first.

With --run, print one run and the verdict for every candidate.

Examples:
  grammatch runs --db ./runs.db
  grammatch runs --db ./runs.db --grammar 978e9380...
  grammatch runs --db ./runs.db --run 01890a5d-ac96-774b-bcce-b302099a8057`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run with its verdicts")
	cmd.Flags().StringVar(&opts.Grammar, "grammar", "", "only runs of the grammar with this hash")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// store.Open would create a missing file.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		message := fmt.Sprintf("database not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeNotFound, message, nil)
		return NewExitError(ExitCommandError, message)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if opts.RunID != "" {
		return showRun(ctx, formatter, st, opts.RunID)
	}
	return listRuns(ctx, formatter, st, opts.Grammar)
}

func listRuns(ctx context.Context, formatter *OutputFormatter, st *store.Store, hash string) error {
	var (
		runs []store.Run
		err  error
	)
	if hash != "" {
		runs, err = st.RunsForGrammar(ctx, hash)
	} else {
		runs, err = st.ReadRuns(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, toRunSummary(r))
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tLABEL\tSTART\tSTRATEGY\tACCEPTED\tERRORS\tGRAMMAR")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d/%d\t%d\t%s\n",
			s.Seq, s.ID, s.Label, s.Start, s.Strategy, s.Accepted, s.Candidates, s.Errors, shortHash(s.GrammarHash))
	}
	return tw.Flush()
}

func showRun(ctx context.Context, formatter *OutputFormatter, st *store.Store, id string) error {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		message := fmt.Sprintf("run not found: %s", id)
		_ = formatter.Error(ErrCodeNotFound, message, nil)
		return WrapExitError(ExitCommandError, message, err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	verdicts, err := st.ReadVerdicts(ctx, id)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read verdicts", err)
	}

	detail := RunDetail{Run: toRunSummary(run), Verdicts: make([]RunVerdict, 0, len(verdicts))}
	for _, v := range verdicts {
		detail.Verdicts = append(detail.Verdicts, RunVerdict{
			Index:     v.Index,
			Candidate: v.Candidate,
			Accepted:  v.Accepted,
			Matched:   v.Matched,
			Remaining: v.Remaining,
			Error:     v.Error,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	s := detail.Run
	fmt.Fprintf(w, "Run %s (seq %d, %s)\n", s.ID, s.Seq, s.Label)
	fmt.Fprintf(w, "Grammar %s, start %d, %s\n", s.GrammarHash, s.Start, s.Strategy)
	fmt.Fprintf(w, "%d of %d candidate(s) accepted\n", s.Accepted, s.Candidates)
	for _, v := range detail.Verdicts {
		switch {
		case v.Error != "":
			fmt.Fprintf(w, "  [%d] ! %q: %s\n", v.Index, v.Candidate, v.Error)
		case v.Accepted:
			fmt.Fprintf(w, "  [%d] ✓ %q\n", v.Index, v.Candidate)
		default:
			fmt.Fprintf(w, "  [%d] ✗ %q\n", v.Index, v.Candidate)
		}
	}
	return nil
}

func toRunSummary(r store.Run) RunSummary {
	return RunSummary{
		Seq:         r.Seq,
		ID:          r.ID,
		GrammarHash: r.GrammarHash,
		Label:       r.Label,
		Start:       r.Start,
		Strategy:    r.Strategy,
		Candidates:  r.Candidates,
		Accepted:    r.Accepted,
		Errors:      r.Errors,
	}
}

// shortHash abbreviates a grammar hash for tables.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
