package harness

// VerdictEvent is one candidate's verdict as read back from the run store.
type VerdictEvent struct {
	Index     int    `json:"index"`
	Candidate string `json:"candidate"`
	Accepted  bool   `json:"accepted"`
	Matched   bool   `json:"matched"`
	Remaining string `json:"remaining,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation holds.
	Pass bool `json:"pass"`

	// RunID identifies the stored run.
	RunID string `json:"run_id"`

	// GrammarHash is the hash of the grammar after any rewrite.
	GrammarHash string `json:"grammar_hash"`

	// Start is the start rule used.
	Start int `json:"start"`

	// Strategy is the recognizer strategy used.
	Strategy string `json:"strategy"`

	// Count is the number of accepted candidates.
	Count int `json:"count"`

	// Accepted lists accepted candidates in input order.
	Accepted []string `json:"accepted"`

	// Verdicts holds every verdict in input order.
	Verdicts []VerdictEvent `json:"verdicts"`

	// Errors contains expectation failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Accepted: []string{},
		Verdicts: []VerdictEvent{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddVerdict appends a verdict, keeping Count and Accepted in step.
func (r *Result) AddVerdict(v VerdictEvent) {
	r.Verdicts = append(r.Verdicts, v)
	if v.Accepted {
		r.Count++
		r.Accepted = append(r.Accepted, v.Candidate)
	}
}
