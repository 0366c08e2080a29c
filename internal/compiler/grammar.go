package compiler

import (
	"fmt"
	"os"
	"unicode/utf8"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/grammatch/internal/grammar"
)

// Compiled is the result of compiling a CUE grammar file.
type Compiled struct {
	Grammar  *grammar.Grammar
	Start    grammar.RuleID
	Messages []string
}

// CompileFile reads and compiles a CUE grammar file.
func CompileFile(path string) (*Compiled, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file: %w", err)
	}
	return CompileSource(path, data)
}

// CompileSource compiles CUE source. filename is used for error positions.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func CompileSource(filename string, src []byte) (*Compiled, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileGrammar(v)
}

// CompileGrammar extracts the grammar, start rule and messages from a CUE
// value holding a top-level `grammar` struct.
func CompileGrammar(v cue.Value) (*Compiled, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	grammarVal := v.LookupPath(cue.ParsePath("grammar"))
	if !grammarVal.Exists() {
		return nil, &CompileError{
			Field:   "grammar",
			Message: "grammar is required",
			Pos:     v.Pos(),
		}
	}

	out := &Compiled{}

	// Start rule (optional, defaults to 0)
	startVal := grammarVal.LookupPath(cue.ParsePath("start"))
	if startVal.Exists() {
		start, err := startVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if start < 0 {
			return nil, &CompileError{
				Field:   "start",
				Message: "start rule must be non-negative",
				Pos:     startVal.Pos(),
			}
		}
		out.Start = grammar.RuleID(start)
	}

	rules, err := parseRules(grammarVal)
	if err != nil {
		return nil, err
	}

	g, err := grammar.New(rules...)
	if err != nil {
		return nil, &CompileError{
			Field:   "rules",
			Message: err.Error(),
			Pos:     grammarVal.Pos(),
		}
	}
	out.Grammar = g

	messagesVal := v.LookupPath(cue.ParsePath("messages"))
	if messagesVal.Exists() {
		iter, err := messagesVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			msg, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out.Messages = append(out.Messages, msg)
		}
	}

	return out, nil
}

// parseRules extracts the rules list.
func parseRules(grammarVal cue.Value) ([]grammar.Rule, error) {
	rulesVal := grammarVal.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "at least one rule is required",
			Pos:     grammarVal.Pos(),
		}
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []grammar.Rule
	for iter.Next() {
		rule, err := parseRule(iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, &CompileError{
			Field:   "rules",
			Message: "at least one rule is required",
			Pos:     rulesVal.Pos(),
		}
	}

	return rules, nil
}

// parseRule parses a single {id, alt} struct.
func parseRule(v cue.Value) (grammar.Rule, error) {
	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return grammar.Rule{}, &CompileError{
			Field:   "rules.id",
			Message: "rule id is required",
			Pos:     v.Pos(),
		}
	}
	id, err := idVal.Int64()
	if err != nil {
		return grammar.Rule{}, formatCUEError(err)
	}
	if id < 0 {
		return grammar.Rule{}, &CompileError{
			Field:   "rules.id",
			Message: fmt.Sprintf("rule id %d must be non-negative", id),
			Pos:     idVal.Pos(),
		}
	}

	altVal := v.LookupPath(cue.ParsePath("alt"))
	if !altVal.Exists() {
		return grammar.Rule{}, &CompileError{
			Field:   fmt.Sprintf("rules.%d.alt", id),
			Message: "rule alternatives are required",
			Pos:     v.Pos(),
		}
	}

	altIter, err := altVal.List()
	if err != nil {
		return grammar.Rule{}, formatCUEError(err)
	}

	rule := grammar.Rule{ID: grammar.RuleID(id)}
	for altIter.Next() {
		alt, err := parseAlternative(grammar.RuleID(id), altIter.Value())
		if err != nil {
			return grammar.Rule{}, err
		}
		rule.Alternatives = append(rule.Alternatives, alt)
	}

	if len(rule.Alternatives) == 0 {
		return grammar.Rule{}, &CompileError{
			Field:   fmt.Sprintf("rules.%d.alt", id),
			Message: "at least one alternative is required",
			Pos:     altVal.Pos(),
		}
	}

	return rule, nil
}

// parseAlternative converts one alternative: a string literal or a list of
// rule ids.
func parseAlternative(id grammar.RuleID, v cue.Value) (grammar.Production, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if utf8.RuneCountInString(s) != 1 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("rules.%d.alt", id),
				Message: fmt.Sprintf("literal %q must be exactly one symbol", s),
				Pos:     v.Pos(),
			}
		}
		r, _ := utf8.DecodeRuneInString(s)
		return grammar.Literal{Symbol: r}, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var refs []grammar.RuleID
		for iter.Next() {
			ref, err := iter.Value().Int64()
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("rules.%d.alt", id),
					Message: "sequence elements must be rule ids",
					Pos:     iter.Value().Pos(),
				}
			}
			if ref < 0 {
				return nil, &CompileError{
					Field:   fmt.Sprintf("rules.%d.alt", id),
					Message: fmt.Sprintf("rule id %d in sequence must be non-negative", ref),
					Pos:     iter.Value().Pos(),
				}
			}
			refs = append(refs, grammar.RuleID(ref))
		}
		return grammar.Sequence{Refs: refs}, nil

	default:
		return nil, &CompileError{
			Field:   fmt.Sprintf("rules.%d.alt", id),
			Message: fmt.Sprintf("alternative must be a string or a list of rule ids, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
