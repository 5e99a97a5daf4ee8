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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/corpora/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
type Provider struct {
	config     *ai.Config
	embedder   *Embedder
	extractor  *DocumentExtractor
	summarizer *Summarizer
	logger     *slog.Logger
}

// NewProvider creates a provider with OpenAI-compatible services. The config
// is validated and normalized before use.
//
// Returns the ai.Provider interface (not *Provider) to enforce abstraction.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	extractor, err := newDocumentExtractor(config)
	if err != nil {
		return nil, err
	}

	summarizer, err := newSummarizer(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		extractor:  extractor,
		summarizer: summarizer,
		logger:     slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// DocumentExtractor returns the document extraction service.
func (p *Provider) DocumentExtractor() ai.DocumentExtractor {
	return p.extractor
}

// Summarizer returns the category summary service.
func (p *Provider) Summarizer() ai.Summarizer {
	return p.summarizer
}

// Verify probes the embedding service with a single short request. Auth
// rejections come back as ai.ErrUnauthorized with remediation text so a
// pipeline can stop before it has scanned or written anything.
func (p *Provider) Verify(ctx context.Context) error {
	if _, err := p.embedder.EmbedText(ctx, "ping"); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: check the API key configured for %s: %v",
				ai.ErrUnauthorized, p.config.EmbeddingHost, err)
		}
		return fmt.Errorf("embedding service unavailable at %s: %w", p.config.EmbeddingHost, err)
	}
	p.logger.Debug("model services verified", "host", p.config.EmbeddingHost)
	return nil
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

// isAuthError inspects an API error for credential rejection. The clients
// surface HTTP failures as text, so this is string inspection.
func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key")
}
