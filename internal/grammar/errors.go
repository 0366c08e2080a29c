package grammar

import (
	"errors"
	"fmt"
)

// UnresolvedRuleError reports a lookup of a rule id the grammar does not
// define. It signals a malformed grammar, not an unmatched input, and must
// never be treated as an ordinary match failure.
type UnresolvedRuleError struct {
	// ID is the missing rule.
	ID RuleID

	// From is the rule whose sequence referenced ID. HasFrom is false when
	// the lookup came from a caller (e.g. an undefined start rule).
	From    RuleID
	HasFrom bool
}

// Error implements the error interface.
func (e *UnresolvedRuleError) Error() string {
	if e.HasFrom {
		return fmt.Sprintf("unresolved rule %d (referenced from rule %d)", e.ID, e.From)
	}
	return fmt.Sprintf("unresolved rule %d", e.ID)
}

// IsUnresolved returns true if err is or wraps an UnresolvedRuleError.
func IsUnresolved(err error) bool {
	var ue *UnresolvedRuleError
	return errors.As(err, &ue)
}

// DuplicateRuleError is returned by New when an id is defined twice.
type DuplicateRuleError struct {
	ID RuleID
}

// Error implements the error interface.
func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %d defined more than once", e.ID)
}

// InvalidRuleError reports a rule that cannot be stored: a negative id, no
// alternatives, or a nil production.
type InvalidRuleError struct {
	ID     RuleID
	Reason string
}

// Error implements the error interface.
func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %d: %s", e.ID, e.Reason)
}
