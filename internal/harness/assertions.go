package harness

import (
	"fmt"
	"strings"
)

// ExpectationError is returned when an expectation fails.
// It includes the verdicts to help debug the failure.
type ExpectationError struct {
	Field    string         // Expect field that failed
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Verdicts []VerdictEvent // All verdicts for context
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nVerdicts:\n")
	for _, v := range e.Verdicts {
		fmt.Fprintf(&buf, "  [%d] %q %s\n", v.Index, v.Candidate, describe(v))
	}

	return buf.String()
}

func describe(v VerdictEvent) string {
	switch {
	case v.Error != "":
		return "error: " + v.Error
	case v.Accepted:
		return "accepted"
	case v.Matched:
		return fmt.Sprintf("rejected (remaining %q)", v.Remaining)
	default:
		return "rejected"
	}
}

// EvaluateExpectations checks result against expect and returns one message
// per failed expectation. An empty slice means every expectation holds.
func EvaluateExpectations(result *Result, expect ExpectClause) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if expect.Count != nil {
		add(expectCount(result, *expect.Count))
	}
	if expect.Accepted != nil {
		add(expectAccepted(result, expect.Accepted))
	}
	for _, c := range expect.Rejected {
		add(expectRejected(result, c))
	}
	for _, c := range expect.Errors {
		add(expectError(result, c))
	}

	return errs
}

func expectCount(result *Result, want int) error {
	if result.Count == want {
		return nil
	}
	return &ExpectationError{
		Field:    "count",
		Expected: fmt.Sprintf("%d accepted", want),
		Actual:   fmt.Sprintf("%d accepted", result.Count),
		Verdicts: result.Verdicts,
	}
}

func expectAccepted(result *Result, want []string) error {
	if equalStrings(result.Accepted, want) {
		return nil
	}
	return &ExpectationError{
		Field:    "accepted",
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", result.Accepted),
		Verdicts: result.Verdicts,
	}
}

func expectRejected(result *Result, candidate string) error {
	v, ok := findVerdict(result, candidate)
	if !ok {
		return &ExpectationError{
			Field:    "rejected",
			Expected: fmt.Sprintf("%q rejected", candidate),
			Actual:   "candidate not in scenario",
			Verdicts: result.Verdicts,
		}
	}
	if v.Accepted {
		return &ExpectationError{
			Field:    "rejected",
			Expected: fmt.Sprintf("%q rejected", candidate),
			Actual:   "accepted",
			Verdicts: result.Verdicts,
		}
	}
	return nil
}

func expectError(result *Result, candidate string) error {
	v, ok := findVerdict(result, candidate)
	if !ok {
		return &ExpectationError{
			Field:    "errors",
			Expected: fmt.Sprintf("%q fails with an error", candidate),
			Actual:   "candidate not in scenario",
			Verdicts: result.Verdicts,
		}
	}
	if v.Error == "" {
		return &ExpectationError{
			Field:    "errors",
			Expected: fmt.Sprintf("%q fails with an error", candidate),
			Actual:   describe(v),
			Verdicts: result.Verdicts,
		}
	}
	return nil
}

// findVerdict returns the first verdict for candidate.
func findVerdict(result *Result, candidate string) (VerdictEvent, bool) {
	for _, v := range result.Verdicts {
		if v.Candidate == candidate {
			return v, true
		}
	}
	return VerdictEvent{}, false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
