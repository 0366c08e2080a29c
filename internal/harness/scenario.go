package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/grammatch/internal/recognizer"
)

// Scenario defines a recognition test scenario: a grammar, optional rule
// rewrites, a list of candidates, and the expected verdicts.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Grammar holds the rules inline in the text format. If the text has a
	// candidates section, those candidates run before Candidates.
	Grammar string `yaml:"grammar,omitempty"`

	// GrammarFile is a text or .cue grammar file, relative to the scenario
	// file. Exactly one of Grammar and GrammarFile must be set.
	GrammarFile string `yaml:"grammar_file,omitempty"`

	// Start overrides the start rule. Defaults to the grammar's own start
	// rule (0 for the text format).
	Start *int `yaml:"start,omitempty"`

	// Strategy is "greedy" (default) or "exhaustive".
	Strategy string `yaml:"strategy,omitempty"`

	// MaxDepth bounds recursion; zero means unlimited.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// RewriteLoops replaces rules 8 and 11 with their looping forms.
	RewriteLoops bool `yaml:"rewrite_loops,omitempty"`

	// Rewrite replaces two existing rules, given as text rule lines such as
	// "8: 42 | 42 8". Mutually exclusive with RewriteLoops.
	Rewrite []string `yaml:"rewrite,omitempty"`

	// Candidates are the strings to check.
	Candidates []string `yaml:"candidates"`

	// Expect holds the expected outcome.
	Expect ExpectClause `yaml:"expect"`

	// RunID is an optional fixed run id for deterministic snapshots.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// ExpectClause specifies the expected verdicts. Every field is optional but
// at least one must be set.
type ExpectClause struct {
	// Count is the expected number of accepted candidates.
	Count *int `yaml:"count,omitempty"`

	// Accepted is the exact list of accepted candidates, in input order.
	Accepted []string `yaml:"accepted,omitempty"`

	// Rejected lists candidates that must not be accepted.
	Rejected []string `yaml:"rejected,omitempty"`

	// Errors lists candidates whose recognition must fail with an error.
	Errors []string `yaml:"errors,omitempty"`
}

func (e ExpectClause) empty() bool {
	return e.Count == nil && e.Accepted == nil && e.Rejected == nil && e.Errors == nil
}

// LoadScenario reads and parses a scenario YAML file.
// A relative grammar_file is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.GrammarFile != "" && !filepath.IsAbs(scenario.GrammarFile) {
		scenario.GrammarFile = filepath.Join(filepath.Dir(path), scenario.GrammarFile)
	}

	if err := validateGrammarFile(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. grammar_file paths are left as given.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "candidate:" vs "candidates:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Grammar == "" && s.GrammarFile == "":
		return fmt.Errorf("one of grammar or grammar_file is required")
	case s.Grammar != "" && s.GrammarFile != "":
		return fmt.Errorf("grammar and grammar_file are mutually exclusive")
	}

	if s.Start != nil && *s.Start < 0 {
		return fmt.Errorf("start must be non-negative, got %d", *s.Start)
	}

	if _, err := recognizer.ParseStrategy(s.Strategy); err != nil {
		return err
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative, got %d", s.MaxDepth)
	}

	if s.RewriteLoops && len(s.Rewrite) > 0 {
		return fmt.Errorf("rewrite_loops and rewrite are mutually exclusive")
	}

	if len(s.Rewrite) != 0 && len(s.Rewrite) != 2 {
		return fmt.Errorf("rewrite needs exactly two rules, got %d", len(s.Rewrite))
	}

	if s.Expect.empty() {
		return fmt.Errorf("expect needs at least one of count, accepted, rejected, errors")
	}

	if s.Expect.Count != nil && *s.Expect.Count < 0 {
		return fmt.Errorf("expect.count must be non-negative, got %d", *s.Expect.Count)
	}

	return nil
}

func validateGrammarFile(s *Scenario) error {
	if s.GrammarFile == "" {
		return nil
	}
	if _, err := os.Stat(s.GrammarFile); os.IsNotExist(err) {
		return fmt.Errorf("grammar file not found: %s", s.GrammarFile)
	}
	return nil
}
