package grammar

import (
	"strconv"
	"strings"
)

// RuleID identifies a rule in a Grammar. Valid ids are non-negative.
type RuleID int

// Production is one alternative of a rule.
//
// The set of implementations is closed: only Literal and Sequence satisfy
// it. Consumers type-switch over the two cases.
type Production interface {
	// productionMarker is a private method to restrict implementers
	productionMarker()

	// String renders the production in text form: `"a"` or `42 8`.
	String() string
}

// Literal matches exactly one input symbol equal to Symbol.
type Literal struct {
	Symbol rune
}

// Sequence matches each referenced rule in order, threading the remaining
// input from one to the next. An empty Sequence matches without consuming.
type Sequence struct {
	Refs []RuleID
}

func (Literal) productionMarker()  {}
func (Sequence) productionMarker() {}

// String implements Production.
func (l Literal) String() string {
	return strconv.Quote(string(l.Symbol))
}

// String implements Production.
func (s Sequence) String() string {
	parts := make([]string, len(s.Refs))
	for i, ref := range s.Refs {
		parts[i] = strconv.Itoa(int(ref))
	}
	return strings.Join(parts, " ")
}

// Lit is shorthand for Literal{Symbol: r}.
func Lit(r rune) Production {
	return Literal{Symbol: r}
}

// Seq is shorthand for a Sequence over ids. The slice is copied.
func Seq(ids ...RuleID) Production {
	refs := make([]RuleID, len(ids))
	copy(refs, ids)
	return Sequence{Refs: refs}
}

// Rule pairs an id with its alternatives, tried in declaration order.
type Rule struct {
	ID           RuleID
	Alternatives []Production
}

// NewRule builds a Rule from alternatives.
func NewRule(id RuleID, alts ...Production) Rule {
	return Rule{ID: id, Alternatives: cloneAlternatives(alts)}
}

// String renders the rule in text form: `8: 42 | 42 8`.
func (r Rule) String() string {
	alts := make([]string, len(r.Alternatives))
	for i, alt := range r.Alternatives {
		alts[i] = alt.String()
	}
	return strconv.Itoa(int(r.ID)) + ": " + strings.Join(alts, " | ")
}

// References returns every rule id mentioned by the rule's sequences, in
// order of appearance. Duplicates are kept.
func (r Rule) References() []RuleID {
	var refs []RuleID
	for _, alt := range r.Alternatives {
		if seq, ok := alt.(Sequence); ok {
			refs = append(refs, seq.Refs...)
		}
	}
	return refs
}

// cloneAlternatives deep-copies alternatives so Sequence backing arrays are
// never shared between grammars.
func cloneAlternatives(alts []Production) []Production {
	out := make([]Production, len(alts))
	for i, alt := range alts {
		switch p := alt.(type) {
		case Literal:
			out[i] = p
		case Sequence:
			refs := make([]RuleID, len(p.Refs))
			copy(refs, p.Refs)
			out[i] = Sequence{Refs: refs}
		default:
			panic("grammar: unknown production type")
		}
	}
	return out
}
