// Package compiler turns CUE grammar definitions into grammar.Grammar values
// and checks grammars for problems the recognizer does not detect itself.
//
// A CUE grammar file looks like:
//
//	grammar: {
//		start: 0
//		rules: [
//			{id: 0, alt: [[4, 1, 5]]},
//			{id: 1, alt: [[2, 3], [3, 2]]},
//			{id: 4, alt: ["a"]},
//		]
//	}
//	messages: ["ababbb", "bababa"]
//
// Each alternative is either a one-symbol string (a literal) or a list of
// rule ids (a sequence). messages is optional.
//
// Validate reports structural errors (dangling references, recursion that
// does not consume input). AnalyzeCycles reports self-referential rule
// groups, which are legal but worth knowing about.
package compiler
