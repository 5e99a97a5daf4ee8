// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import (
	"context"

	"github.com/poiesic/corpora/ai"
)

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder, extractor and summarizer instances.
type MockProvider struct {
	// VerifyFunc is called by Verify if set. If nil, Verify succeeds.
	VerifyFunc func(ctx context.Context) error

	embedder   *MockEmbedder
	extractor  *MockDocumentExtractor
	summarizer *MockSummarizer
}

// NewMockProvider creates a mock provider with default mock services.
//
// Returns the concrete type: tests need it to inject behavior and read
// call counts through GetMockEmbedder and friends.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		extractor:  NewMockDocumentExtractor(),
		summarizer: NewMockSummarizer(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// DocumentExtractor returns the mock extractor.
func (p *MockProvider) DocumentExtractor() ai.DocumentExtractor {
	return p.extractor
}

// Summarizer returns the mock summarizer.
func (p *MockProvider) Summarizer() ai.Summarizer {
	return p.summarizer
}

// Verify succeeds unless a VerifyFunc is injected.
func (p *MockProvider) Verify(ctx context.Context) error {
	if p.VerifyFunc != nil {
		return p.VerifyFunc(ctx)
	}
	return nil
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor returns the concrete mock extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockDocumentExtractor {
	return p.extractor
}

// GetMockSummarizer returns the concrete mock summarizer for test assertions.
func (p *MockProvider) GetMockSummarizer() *MockSummarizer {
	return p.summarizer
}

var _ ai.Provider = (*MockProvider)(nil)
