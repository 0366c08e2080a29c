// Package recognizer decides whether a grammar rule derives a prefix of an
// input string.
//
// MATCHING:
//
// Match(id, input) tries the alternatives of rule id in declaration order.
// A Literal consumes one rune equal to its symbol. A Sequence threads the
// remaining input through each referenced rule in turn and gives up on the
// first reference that fails. The first alternative that succeeds decides
// the outcome; later alternatives are not tried.
//
// The default Greedy strategy never backtracks. Once a sub-rule reports a
// match it is committed to, even if a later sibling in the same sequence then
// fails with that split. This is only complete for grammars where every
// choice point has at most one viable derivation, for example when all
// alternatives of a rule consume the same number of symbols. Other grammars
// can see false negatives. This is a precondition on the grammar, not
// something the recognizer detects.
//
// The Exhaustive strategy follows every alternative and keeps the full set
// of possible remainders. It accepts every derivable string but explores
// exponentially many paths in the worst case. It builds no chart and no
// trees.
//
// TERMINATION:
//
// Self-referential rules are supported as long as every alternative that can
// recurse into the same rule consumes at least one symbol first. A rule that
// can recurse without consuming input recurses forever. WithMaxDepth turns
// that into a DepthExceededError instead of a stack overflow.
//
// ERRORS:
//
// A non-match is an Outcome with Matched == false and a nil error. A
// reference to an undefined rule yields *grammar.UnresolvedRuleError. It is
// never reported as a non-match.
//
// A Recognizer holds no mutable state. One instance may serve any number of
// goroutines provided the grammar is not modified concurrently.
package recognizer
