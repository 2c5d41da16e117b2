package testutil

// FixedIDGenerator returns the same identifier every time.
//
// It stands in for the UUIDv7 generator that stamps installation IDs so that
// stored values, dumps and golden traces stay byte-identical across runs.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id.
// If id is empty, Generate returns "test-install-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-install-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed identifier.
func (g *FixedIDGenerator) Generate() (string, error) {
	return g.id, nil
}
