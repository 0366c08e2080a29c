package grammar

import "fmt"

// Rule ids touched by the loop rewrite.
const (
	LoopRuleA RuleID = 8
	LoopRuleB RuleID = 11
)

// Rewrite returns a copy of g in which the pre-existing rules a.ID and b.ID
// are replaced by the given alternatives. g itself is not modified.
//
// The replacement alternatives typically reference their own rule. The
// recognizer only terminates on them if every self-referential alternative
// consumes input before recursing; Rewrite does not check this (see
// compiler.Validate).
func (g *Grammar) Rewrite(a, b Rule) (*Grammar, error) {
	if a.ID == b.ID {
		return nil, &InvalidRuleError{ID: a.ID, Reason: "rewrite needs two distinct rules"}
	}
	for _, r := range []Rule{a, b} {
		if !g.Has(r.ID) {
			return nil, fmt.Errorf("rewrite: %w", &UnresolvedRuleError{ID: r.ID})
		}
	}

	out := g.Clone()
	for _, r := range []Rule{a, b} {
		if err := out.Define(r.ID, r.Alternatives...); err != nil {
			return nil, fmt.Errorf("rewrite: %w", err)
		}
	}
	return out, nil
}

// LoopRewrite returns the replacement pair that turns rules 8 and 11 into
// loops:
//
//	8: 42 | 42 8
//	11: 42 31 | 42 11 31
//
// Rule 8 then matches one or more 42s, and rule 11 matches n 42s followed
// by n 31s. Each original alternative stays first in its rule.
func LoopRewrite() (Rule, Rule) {
	return NewRule(LoopRuleA, Seq(42), Seq(42, LoopRuleA)),
		NewRule(LoopRuleB, Seq(42, 31), Seq(42, LoopRuleB, 31))
}

// WithLoops applies LoopRewrite to g.
func (g *Grammar) WithLoops() (*Grammar, error) {
	a, b := LoopRewrite()
	return g.Rewrite(a, b)
}
