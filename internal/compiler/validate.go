package compiler

import (
	"fmt"

	"github.com/roach88/grammatch/internal/grammar"
)

// Validation error codes (E200-E299)
const (
	ErrStartUndefined        = "E201" // start rule is not defined
	ErrDanglingReference     = "E202" // sequence references an undefined rule
	ErrNonConsumingRecursion = "E203" // rule can recurse without consuming input
	ErrEmptySequence         = "E204" // sequence alternative with no references
)

// ValidationError represents a grammar validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Rule    int    `json:"rule"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks g for problems the recognizer would only hit at match
// time, or never detect at all. Returns all errors found (does not
// fail-fast), ordered by rule id.
//
// A grammar that passes Validate has no dangling references and cannot
// recurse without consuming input, so recognition always terminates. It may
// still be ambiguous in a way the greedy strategy handles incompletely; that
// property is not checked.
func Validate(g *grammar.Grammar, start grammar.RuleID) []ValidationError {
	var errs []ValidationError

	// E201: start rule must exist
	if !g.Has(start) {
		errs = append(errs, ValidationError{
			Field:   "start",
			Message: fmt.Sprintf("start rule %d is not defined", start),
			Code:    ErrStartUndefined,
			Rule:    int(start),
		})
	}

	for _, rule := range g.Rules() {
		for i, alt := range rule.Alternatives {
			seq, ok := alt.(grammar.Sequence)
			if !ok {
				continue
			}
			field := fmt.Sprintf("rules[%d].alt[%d]", rule.ID, i)

			// E204: empty sequence matches without consuming
			if len(seq.Refs) == 0 {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("rule %d has an empty sequence alternative", rule.ID),
					Code:    ErrEmptySequence,
					Rule:    int(rule.ID),
				})
			}

			// E202: every reference must resolve
			for _, ref := range seq.Refs {
				if !g.Has(ref) {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("rule %d references undefined rule %d", rule.ID, ref),
						Code:    ErrDanglingReference,
						Rule:    int(rule.ID),
					})
				}
			}
		}
	}

	// E203: a cycle through left corners never consumes input
	graph := leftCornerGraph(g)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rules[%d]", scc[0]),
				Message: fmt.Sprintf("recursion without consuming input: %s", formatPath(path)),
				Code:    ErrNonConsumingRecursion,
				Rule:    int(scc[0]),
			})
		}
	}

	return errs
}

// Unreachable returns the defined rules that cannot be reached from start,
// in ascending order.
func Unreachable(g *grammar.Grammar, start grammar.RuleID) []grammar.RuleID {
	reached := make(map[grammar.RuleID]bool)
	stack := []grammar.RuleID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		rule, err := g.Lookup(id)
		if err != nil {
			continue
		}
		stack = append(stack, rule.References()...)
	}

	var out []grammar.RuleID
	for _, id := range g.IDs() {
		if !reached[id] {
			out = append(out, id)
		}
	}
	return out
}
