package recognizer

import (
	"errors"
	"fmt"

	"github.com/roach88/grammatch/internal/grammar"
)

// DepthExceededError is returned when recursion goes deeper than the limit
// set with WithMaxDepth. It usually means the grammar recurses without
// consuming input.
type DepthExceededError struct {
	Rule  grammar.RuleID // Rule being entered when the limit was hit
	Depth int            // Depth reached
	Limit int            // Configured limit
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("recursion depth %d exceeds limit %d at rule %d", e.Depth, e.Limit, e.Rule)
}

// IsDepthExceeded returns true if err is or wraps a DepthExceededError.
func IsDepthExceeded(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}
