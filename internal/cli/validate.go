package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grammatch/internal/compiler"
	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/loader"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Start int
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Rules       int                        `json:"rules"`
	Start       int                        `json:"start"`
	Hash        string                     `json:"hash"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
	Cycles      []compiler.CycleWarning    `json:"cycles,omitempty"`
	Unreachable []grammar.RuleID           `json:"unreachable,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a grammar for structural problems",
		Long: `Check a grammar without evaluating any candidates.

Reports an undefined start rule, references to undefined rules, empty
sequences, and recursion that can loop without consuming input. Recursive
rule groups and rules unreachable from the start rule are listed as
information and do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Start, "start", 0, "start rule (default: the grammar's own start rule)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	doc, err := LoadDocument(path, loader.Options{})
	if err != nil {
		return outputLoadError(formatter, err)
	}

	start := doc.Start
	if cmd.Flags().Changed("start") {
		start = grammar.RuleID(opts.Start)
	}
	formatter.VerboseLog("Validating %d rule(s) from %s with start rule %d", doc.Grammar.Len(), path, start)

	result := ValidationResult{
		Rules:  doc.Grammar.Len(),
		Start:  int(start),
		Hash:   doc.Grammar.Hash(),
		Errors: compiler.Validate(doc.Grammar, start),
		Cycles: compiler.AnalyzeCycles(doc.Grammar),
	}
	result.Valid = len(result.Errors) == 0
	if result.Valid {
		result.Unreachable = compiler.Unreachable(doc.Grammar, start)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Grammar valid (%d rules, start %d)\n", result.Rules, result.Start)
	printInfo(formatter, result)
	return nil
}

// printInfo lists cycles and unreachable rules.
func printInfo(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "  %s: %s\n", c.Level, c.Message)
	}
	if len(result.Unreachable) > 0 {
		fmt.Fprintf(w, "  info: unreachable from rule %d: %v\n", result.Start, result.Unreachable)
	}
	formatter.VerboseLog("grammar hash %s", result.Hash)
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	message := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	if formatter.Format == "json" {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, message)
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", err.Code, err.Message)
	}
	printInfo(formatter, result)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, message)
}
