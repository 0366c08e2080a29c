package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Grammar is a table of rules keyed by id.
//
// The zero value is an empty grammar ready for Define.
type Grammar struct {
	rules map[RuleID]Rule
}

// New builds a grammar from rules. Each id may appear once.
//
// Rules are copied; later changes to the caller's slices do not affect the
// grammar. References to undefined ids are accepted here and reported by
// Lookup.
func New(rules ...Rule) (*Grammar, error) {
	g := &Grammar{rules: make(map[RuleID]Rule, len(rules))}
	for _, r := range rules {
		if _, exists := g.rules[r.ID]; exists {
			return nil, &DuplicateRuleError{ID: r.ID}
		}
		if err := g.Define(r.ID, r.Alternatives...); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when rules are known to be valid.
func MustNew(rules ...Rule) *Grammar {
	g, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return g
}

// Lookup returns the rule for id, or an UnresolvedRuleError.
func (g *Grammar) Lookup(id RuleID) (Rule, error) {
	r, ok := g.rules[id]
	if !ok {
		return Rule{}, &UnresolvedRuleError{ID: id}
	}
	return r, nil
}

// Has reports whether id is defined.
func (g *Grammar) Has(id RuleID) bool {
	_, ok := g.rules[id]
	return ok
}

// Define inserts or overwrites the rule for id.
//
// Outside construction this is only used by Rewrite; callers that share a
// grammar with running recognizers must Clone first.
func (g *Grammar) Define(id RuleID, alts ...Production) error {
	if id < 0 {
		return &InvalidRuleError{ID: id, Reason: "rule ids must be non-negative"}
	}
	if len(alts) == 0 {
		return &InvalidRuleError{ID: id, Reason: "at least one alternative is required"}
	}
	for i, alt := range alts {
		if alt == nil {
			return &InvalidRuleError{ID: id, Reason: fmt.Sprintf("alternative %d is nil", i)}
		}
	}
	if g.rules == nil {
		g.rules = make(map[RuleID]Rule)
	}
	g.rules[id] = Rule{ID: id, Alternatives: cloneAlternatives(alts)}
	return nil
}

// Clone returns an independent copy of the grammar.
func (g *Grammar) Clone() *Grammar {
	out := &Grammar{rules: make(map[RuleID]Rule, len(g.rules))}
	for id, r := range g.rules {
		out.rules[id] = Rule{ID: id, Alternatives: cloneAlternatives(r.Alternatives)}
	}
	return out
}

// Len returns the number of defined rules.
func (g *Grammar) Len() int {
	return len(g.rules)
}

// IDs returns the defined rule ids in ascending order.
func (g *Grammar) IDs() []RuleID {
	ids := make([]RuleID, 0, len(g.rules))
	for id := range g.rules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Rules returns copies of all rules ordered by id.
func (g *Grammar) Rules() []Rule {
	ids := g.IDs()
	out := make([]Rule, len(ids))
	for i, id := range ids {
		r := g.rules[id]
		out[i] = Rule{ID: id, Alternatives: cloneAlternatives(r.Alternatives)}
	}
	return out
}

// String renders the grammar in text form, one rule per line, ordered by
// id. The output parses back to an equal grammar with loader.ParseText.
func (g *Grammar) String() string {
	var b strings.Builder
	for _, r := range g.Rules() {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
