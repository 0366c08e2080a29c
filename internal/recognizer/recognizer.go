package recognizer

import (
	"unicode/utf8"

	"github.com/roach88/grammatch/internal/grammar"
)

// Outcome is the result of matching a rule against an input.
//
// Matched reports whether the rule derived a prefix of the input; Remaining
// is the unconsumed suffix and is only meaningful when Matched is true.
type Outcome struct {
	Matched   bool
	Remaining string
}

// Complete reports whether the match consumed the whole input.
func (o Outcome) Complete() bool {
	return o.Matched && o.Remaining == ""
}

// Recognizer matches inputs against a grammar.
type Recognizer struct {
	g        *grammar.Grammar
	strategy Strategy
	maxDepth int // 0 = unlimited
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithStrategy selects Greedy (default) or Exhaustive matching.
func WithStrategy(s Strategy) Option {
	return func(r *Recognizer) {
		r.strategy = s
	}
}

// WithMaxDepth bounds the recursion depth. Zero or negative means no limit.
//
// The limit does not change which strings are accepted; it only replaces a
// runaway recursion with a DepthExceededError.
func WithMaxDepth(depth int) Option {
	return func(r *Recognizer) {
		r.maxDepth = depth
	}
}

// New creates a Recognizer over g. The grammar is used by reference and must
// not be modified while the recognizer is in use.
func New(g *grammar.Grammar, opts ...Option) *Recognizer {
	r := &Recognizer{g: g, strategy: Greedy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured strategy.
func (r *Recognizer) Strategy() Strategy {
	return r.strategy
}

// Match matches rule id against a prefix of input.
//
// With the Exhaustive strategy the outcome is a complete match if any
// derivation consumes the whole input, otherwise the first remainder found.
func (r *Recognizer) Match(id grammar.RuleID, input string) (Outcome, error) {
	if r.strategy == Exhaustive {
		rests, err := r.Remainders(id, input)
		if err != nil {
			return Outcome{}, err
		}
		if len(rests) == 0 {
			return Outcome{}, nil
		}
		for _, rest := range rests {
			if rest == "" {
				return Outcome{Matched: true}, nil
			}
		}
		return Outcome{Matched: true, Remaining: rests[0]}, nil
	}
	return r.matchRule(id, origin{}, input, 1)
}

// Accepts reports whether rule id derives the whole input.
func (r *Recognizer) Accepts(id grammar.RuleID, input string) (bool, error) {
	out, err := r.Match(id, input)
	if err != nil {
		return false, err
	}
	return out.Complete(), nil
}

// Remainders returns every suffix of input left over by some derivation of
// rule id, in order of discovery and without duplicates.
//
// Under Greedy this is at most one remainder, the one Match reports.
func (r *Recognizer) Remainders(id grammar.RuleID, input string) ([]string, error) {
	if r.strategy == Greedy {
		out, err := r.matchRule(id, origin{}, input, 1)
		if err != nil || !out.Matched {
			return nil, err
		}
		return []string{out.Remaining}, nil
	}
	return r.allRemainders(id, origin{}, input, 1)
}

// origin records which rule referenced the one being looked up, for error
// reporting.
type origin struct {
	rule   grammar.RuleID
	nested bool
}

func (r *Recognizer) enter(id grammar.RuleID, from origin, depth int) (grammar.Rule, error) {
	if r.maxDepth > 0 && depth > r.maxDepth {
		return grammar.Rule{}, &DepthExceededError{Rule: id, Depth: depth, Limit: r.maxDepth}
	}
	rule, err := r.g.Lookup(id)
	if err != nil {
		if from.nested {
			return grammar.Rule{}, &grammar.UnresolvedRuleError{ID: id, From: from.rule, HasFrom: true}
		}
		return grammar.Rule{}, err
	}
	return rule, nil
}

// matchRule is the greedy matcher: the first alternative that succeeds wins.
func (r *Recognizer) matchRule(id grammar.RuleID, from origin, input string, depth int) (Outcome, error) {
	rule, err := r.enter(id, from, depth)
	if err != nil {
		return Outcome{}, err
	}

	for _, alt := range rule.Alternatives {
		switch p := alt.(type) {
		case grammar.Literal:
			if rest, ok := matchLiteral(p.Symbol, input); ok {
				return Outcome{Matched: true, Remaining: rest}, nil
			}
		case grammar.Sequence:
			out, err := r.matchSequence(id, p.Refs, input, depth)
			if err != nil {
				return Outcome{}, err
			}
			if out.Matched {
				return out, nil
			}
		default:
			panic("recognizer: unknown production type")
		}
	}

	return Outcome{}, nil
}

// matchSequence threads input through refs and stops at the first failure.
// A failed reference is not retried with another split.
func (r *Recognizer) matchSequence(parent grammar.RuleID, refs []grammar.RuleID, input string, depth int) (Outcome, error) {
	rest := input
	for _, ref := range refs {
		out, err := r.matchRule(ref, origin{rule: parent, nested: true}, rest, depth+1)
		if err != nil {
			return Outcome{}, err
		}
		if !out.Matched {
			return Outcome{}, nil
		}
		rest = out.Remaining
	}
	return Outcome{Matched: true, Remaining: rest}, nil
}

// allRemainders is the exhaustive matcher.
func (r *Recognizer) allRemainders(id grammar.RuleID, from origin, input string, depth int) ([]string, error) {
	rule, err := r.enter(id, from, depth)
	if err != nil {
		return nil, err
	}

	var out remainderSet
	for _, alt := range rule.Alternatives {
		switch p := alt.(type) {
		case grammar.Literal:
			if rest, ok := matchLiteral(p.Symbol, input); ok {
				out.add(rest)
			}
		case grammar.Sequence:
			rests, err := r.allSequence(id, p.Refs, input, depth)
			if err != nil {
				return nil, err
			}
			for _, rest := range rests {
				out.add(rest)
			}
		default:
			panic("recognizer: unknown production type")
		}
	}

	return out.items, nil
}

func (r *Recognizer) allSequence(parent grammar.RuleID, refs []grammar.RuleID, input string, depth int) ([]string, error) {
	current := []string{input}
	for _, ref := range refs {
		var next remainderSet
		for _, s := range current {
			rests, err := r.allRemainders(ref, origin{rule: parent, nested: true}, s, depth+1)
			if err != nil {
				return nil, err
			}
			for _, rest := range rests {
				next.add(rest)
			}
		}
		if len(next.items) == 0 {
			return nil, nil
		}
		current = next.items
	}
	return current, nil
}

// remainderSet keeps suffixes of a single input in discovery order. Suffixes
// of the same string are equal iff their lengths are.
type remainderSet struct {
	items []string
	seen  map[int]bool
}

func (s *remainderSet) add(rest string) {
	if s.seen == nil {
		s.seen = make(map[int]bool)
	}
	if s.seen[len(rest)] {
		return
	}
	s.seen[len(rest)] = true
	s.items = append(s.items, rest)
}

// matchLiteral consumes one rune equal to symbol from the front of input.
func matchLiteral(symbol rune, input string) (string, bool) {
	if input == "" {
		return "", false
	}
	c, size := utf8.DecodeRuneInString(input)
	if c == utf8.RuneError && size == 1 {
		// Invalid byte, not a literal U+FFFD.
		return "", false
	}
	if c != symbol {
		return "", false
	}
	return input[size:], true
}
