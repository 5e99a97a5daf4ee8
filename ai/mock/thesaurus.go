package mock

import (
	"context"

	"github.com/poiesic/corpora/ai"
)

// MockThesaurus is a test double for ai.Thesaurus. The engine treats the
// thesaurus as an external vocabulary service, so this is the only
// implementation the module ships.
type MockThesaurus struct {
	// ExpandFunc is called by Expand if set.
	// If nil, every name expands to the empty expansion.
	ExpandFunc func(ctx context.Context, name string) (*ai.Expansion, error)

	// Entries maps names to canned expansions, consulted when ExpandFunc
	// is nil. Convenient for table-driven tests.
	Entries map[string]*ai.Expansion

	callCount int
}

// NewMockThesaurus creates an empty mock thesaurus.
// Returns the concrete type to allow test assertions.
func NewMockThesaurus() *MockThesaurus {
	return &MockThesaurus{}
}

// Expand returns the canned expansion for a name, or an empty one.
func (m *MockThesaurus) Expand(ctx context.Context, name string) (*ai.Expansion, error) {
	m.callCount++

	if m.ExpandFunc != nil {
		return m.ExpandFunc(ctx, name)
	}
	if exp, ok := m.Entries[name]; ok {
		return exp, nil
	}
	return &ai.Expansion{}, nil
}

// CallCount returns the number of times Expand was called.
func (m *MockThesaurus) CallCount() int {
	return m.callCount
}

// Reset clears the call count, custom functions and canned entries.
func (m *MockThesaurus) Reset() {
	m.callCount = 0
	m.ExpandFunc = nil
	m.Entries = nil
}

var _ ai.Thesaurus = (*MockThesaurus)(nil)
