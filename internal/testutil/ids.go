package testutil

// FixedRunIDGenerator returns the same run id every time.
//
// This keeps stored runs and golden snapshots byte-identical across test
// executions. Use store.FixedGenerator when a test records several runs and
// needs distinct ids.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id.
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements store.IDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
