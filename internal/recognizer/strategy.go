package recognizer

import "fmt"

// Strategy selects how alternatives are explored.
type Strategy int

const (
	// Greedy commits to the first successful alternative of every rule.
	Greedy Strategy = iota
	// Exhaustive keeps every possible remainder.
	Exhaustive
)

// ValidStrategies lists the accepted strategy names.
var ValidStrategies = []string{"greedy", "exhaustive"}

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Greedy:
		return "greedy"
	case Exhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a name from ValidStrategies to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "greedy", "":
		return Greedy, nil
	case "exhaustive":
		return Exhaustive, nil
	default:
		return Greedy, fmt.Errorf("invalid strategy %q: must be one of %v", name, ValidStrategies)
	}
}
