// Package grammar provides the rule table used by the recognizer.
//
// A Grammar maps integer rule identifiers to rules. Each rule holds an
// ordered list of alternative productions, and a production is either a
// Literal (one input symbol) or a Sequence (an ordered list of rule
// references).
//
// Rules reference each other by id only, never by pointer, so a grammar
// whose rules refer back to themselves (directly or through other rules)
// needs no special handling to represent.
//
// References are resolved lazily: New accepts a grammar that mentions
// undefined ids, and the error surfaces from Lookup when a recognizer
// actually follows the reference. Use compiler.Validate for an eager check.
//
// A Grammar is not mutated once built, apart from Define. Rewrite returns a
// modified copy and leaves the receiver untouched, so a grammar shared by
// concurrent recognizers stays stable for the whole pass.
package grammar
