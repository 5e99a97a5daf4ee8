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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DocumentExtractor implements ai.DocumentExtractor using OpenAI-compatible
// chat APIs.
type DocumentExtractor struct {
	client      llms.Model
	maxConcepts int
	logger      *slog.Logger
}

// extraction matches the JSON structure requested from the model.
type extraction struct {
	PrimaryConcepts []string            `json:"primary_concepts"`
	TechnicalTerms  []string            `json:"technical_terms"`
	Categories      []string            `json:"categories"`
	Related         map[string][]string `json:"related"`
	Summary         string              `json:"summary"`
	Metadata        *metadata           `json:"metadata"`
}

type metadata struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Year       int    `json:"year"`
	Publisher  string `json:"publisher"`
	Identifier string `json:"identifier"`
}

// newDocumentExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newDocumentExtractor(config *ai.Config) (*DocumentExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &DocumentExtractor{
		client:      client,
		maxConcepts: config.MaxConcepts,
		logger:      slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewDocumentExtractor creates a new extractor using the provided configuration.
//
// Returns ai.DocumentExtractor interface to enforce abstraction.
func NewDocumentExtractor(config *ai.Config) (ai.DocumentExtractor, error) {
	return newDocumentExtractor(config)
}

// ExtractDocument analyzes text and returns its concept structure.
// Malformed JSON from the model is repaired and retried up to 3 times.
func (e *DocumentExtractor) ExtractDocument(ctx context.Context, text string) (*ai.DocumentExtraction, error) {
	if strings.TrimSpace(text) == "" {
		return &ai.DocumentExtraction{}, nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildExtractionPrompt(e.maxConcepts)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return &ai.DocumentExtraction{}, nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, lastErr)
	}

	return e.normalize(&result), nil
}

// normalize cleans a raw extraction: names lowercased and deduplicated,
// primary concepts capped, related keys restricted to surviving concepts.
func (e *DocumentExtractor) normalize(raw *extraction) *ai.DocumentExtraction {
	primary := normalizeNames(raw.PrimaryConcepts)
	if len(primary) > e.maxConcepts {
		primary = primary[:e.maxConcepts]
	}

	kept := make(map[string]bool, len(primary))
	for _, name := range primary {
		kept[name] = true
	}

	related := make(map[string][]string, len(raw.Related))
	for key, names := range raw.Related {
		key = core.NormalizeName(key)
		if !kept[key] {
			continue
		}
		if cleaned := normalizeNames(names); len(cleaned) > 0 {
			related[key] = cleaned
		}
	}

	out := &ai.DocumentExtraction{
		PrimaryConcepts: primary,
		TechnicalTerms:  normalizeNames(raw.TechnicalTerms),
		Categories:      normalizeNames(raw.Categories),
		Related:         related,
		Summary:         strings.TrimSpace(raw.Summary),
	}
	if raw.Metadata != nil && (raw.Metadata.Title != "" || raw.Metadata.Author != "") {
		out.Metadata = &ai.DocumentMetadata{
			Title:      strings.TrimSpace(raw.Metadata.Title),
			Author:     strings.TrimSpace(raw.Metadata.Author),
			Year:       raw.Metadata.Year,
			Publisher:  strings.TrimSpace(raw.Metadata.Publisher),
			Identifier: strings.TrimSpace(raw.Metadata.Identifier),
		}
	}
	return out
}

// normalizeNames lowercases, collapses whitespace and deduplicates while
// preserving first-seen order.
func normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = core.NormalizeName(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
