package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/corpora/ai"
)

// MockDocumentExtractor is a test double for ai.DocumentExtractor.
// It allows custom behavior injection via function fields.
type MockDocumentExtractor struct {
	// ExtractDocumentFunc is called by ExtractDocument if set.
	// If nil, uses default simple word extraction.
	ExtractDocumentFunc func(ctx context.Context, text string) (*ai.DocumentExtraction, error)

	// Slices of one document may be extracted concurrently.
	mu        sync.Mutex
	callCount int
}

// NewMockDocumentExtractor creates a mock extractor with default behavior.
// Returns the concrete type to allow test assertions.
func NewMockDocumentExtractor() *MockDocumentExtractor {
	return &MockDocumentExtractor{}
}

// ExtractDocument derives a simple deterministic extraction from the text.
// Default behavior: distinct words longer than five characters become
// primary concepts (up to five), and the first sentence becomes the summary.
func (m *MockDocumentExtractor) ExtractDocument(ctx context.Context, text string) (*ai.DocumentExtraction, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractDocumentFunc != nil {
		return m.ExtractDocumentFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return &ai.DocumentExtraction{}, nil
	}

	seen := make(map[string]bool)
	concepts := make([]string, 0, 5)
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if len(word) <= 5 || seen[word] {
			continue
		}
		seen[word] = true
		concepts = append(concepts, word)
		if len(concepts) == 5 {
			break
		}
	}

	summary := text
	if idx := strings.IndexByte(summary, '.'); idx > 0 {
		summary = summary[:idx+1]
	}

	return &ai.DocumentExtraction{
		PrimaryConcepts: concepts,
		Summary:         strings.TrimSpace(summary),
	}, nil
}

// CallCount returns the number of times ExtractDocument was called.
func (m *MockDocumentExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockDocumentExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractDocumentFunc = nil
}
