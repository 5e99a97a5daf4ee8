package mock

import (
	"context"

	"github.com/poiesic/corpora/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
type MockSummarizer struct {
	// SummarizeCategoriesFunc is called by SummarizeCategories if set.
	// If nil, uses default templated summaries.
	SummarizeCategoriesFunc func(ctx context.Context, names []string) (map[string]string, error)

	callCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Returns the concrete type to allow test assertions.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// SummarizeCategories returns a templated summary per requested name.
func (m *MockSummarizer) SummarizeCategories(ctx context.Context, names []string) (map[string]string, error) {
	m.callCount++

	if m.SummarizeCategoriesFunc != nil {
		return m.SummarizeCategoriesFunc(ctx, names)
	}

	summaries := make(map[string]string, len(names))
	for _, name := range names {
		summaries[name] = "Documents about " + name + "."
	}
	return summaries, nil
}

// CallCount returns the number of times SummarizeCategories was called.
func (m *MockSummarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.callCount = 0
	m.SummarizeCategoriesFunc = nil
}

var _ ai.Summarizer = (*MockSummarizer)(nil)
