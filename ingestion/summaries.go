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


package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// SummaryUpdater maintains category summaries incrementally. Summaries the
// store already holds are never regenerated; only categories observed for
// the first time cost a model call.
type SummaryUpdater struct {
	concepts   storage.ConceptRepository
	summarizer ai.Summarizer
	logger     *slog.Logger
}

// NewSummaryUpdater creates a summary updater.
func NewSummaryUpdater(concepts storage.ConceptRepository, summarizer ai.Summarizer, logger *slog.Logger) *SummaryUpdater {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryUpdater{
		concepts:   concepts,
		summarizer: summarizer,
		logger:     logger.With("component", "summaries"),
	}
}

// Summaries returns a summary for every observed category name, combining
// stored summaries with freshly generated ones for the names the store has
// not seen. An empty store means every observed name is missing; there is
// no special case.
func (u *SummaryUpdater) Summaries(ctx context.Context, observed []string) (map[string]string, error) {
	if len(observed) == 0 {
		return map[string]string{}, nil
	}

	known, err := u.knownSummaries(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	result := make(map[string]string, len(observed))
	for _, name := range observed {
		name = core.NormalizeName(name)
		if summary, ok := known[name]; ok {
			result[name] = summary
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	u.logger.Debug("generating category summaries", "observed", len(observed), "missing", len(missing))
	generated, err := u.summarizer.SummarizeCategories(ctx, missing)
	if err != nil {
		return nil, err
	}
	for name, summary := range generated {
		result[name] = summary
	}
	return result, nil
}

// knownSummaries maps category names to their stored non-empty summaries.
func (u *SummaryUpdater) knownSummaries(ctx context.Context) (map[string]string, error) {
	concepts, err := u.concepts.ListConcepts(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]string)
	for _, concept := range concepts {
		if concept.Kind == core.KindCategory && concept.Summary != "" {
			known[concept.Name] = concept.Summary
		}
	}
	return known, nil
}
