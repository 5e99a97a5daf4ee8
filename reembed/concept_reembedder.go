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


package reembed

import (
	"context"
	"fmt"
	"io"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/storage"
)

// ConceptReembedder replaces every concept embedding in a store. Concepts
// embed their name plus summary, so a concept gains retrieval context once
// a summary has been written for it.
type ConceptReembedder struct {
	repo     storage.ConceptRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewConceptReembedder creates a new concept reembedder.
func NewConceptReembedder(repo storage.ConceptRepository, embedder ai.Embedder, config *Config, progress io.Writer) *ConceptReembedder {
	if config == nil {
		config = DefaultConfig()
	}
	return &ConceptReembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
	}
}

// Run reembeds every concept with the configured embedder.
func (r *ConceptReembedder) Run(ctx context.Context) error {
	concepts, err := r.repo.ListConcepts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list concepts: %w", err)
	}

	if len(concepts) == 0 {
		fmt.Fprintf(r.progress, "No concepts found in store (0 concepts)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d concepts\n", len(concepts))

	for i := 0; i < len(concepts); i += r.config.BatchSize {
		end := i + r.config.BatchSize
		if end > len(concepts) {
			end = len(concepts)
		}
		batch := concepts[i:end]

		texts := make([]string, len(batch))
		for j, concept := range batch {
			texts[j] = concept.Name
			if concept.Summary != "" {
				texts[j] += ": " + concept.Summary
			}
		}

		var embeddings [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = r.embedder.EmbedTexts(ctx, texts)
			return err
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings after %d attempts: %w", r.config.MaxRetries, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		for j := range batch {
			batch[j].Embedding = NormalizeVector(embeddings[j])
		}
		// Upsert merge replaces a non-empty incoming embedding, which is
		// exactly the write needed here.
		if _, err := r.repo.UpsertConceptEntries(ctx, batch...); err != nil {
			return fmt.Errorf("failed to update concepts: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	fmt.Fprintf(r.progress, "Concept reembedding complete. Processed %d concepts\n", len(concepts))
	return nil
}
