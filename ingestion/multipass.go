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
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/reembed"
	"github.com/poiesic/corpora/stagecache"
)

// MultiPassExtractor extracts oversized documents slice by slice on a
// worker pool and merges the results. Every slice result lands in the
// stage cache under its own content hash, so an interrupted run resumes
// from the last completed slice.
type MultiPassExtractor struct {
	extractor  ai.DocumentExtractor
	splitter   *Splitter
	cache      *stagecache.Cache
	pool       *ants.Pool
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewMultiPassExtractor creates a multi-pass extractor sharing the given
// worker pool.
func NewMultiPassExtractor(extractor ai.DocumentExtractor, splitter *Splitter, cache *stagecache.Cache,
	pool *ants.Pool, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *MultiPassExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiPassExtractor{
		extractor:  extractor,
		splitter:   splitter,
		cache:      cache,
		pool:       pool,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger.With("component", "multipass"),
	}
}

// Extract analyzes a document, splitting it when it exceeds the multi-pass
// threshold. Returns the merged result and the number of model calls made.
// A slice that keeps failing after retries is reported through the result's
// Incomplete flag; only context cancellation aborts the whole document.
func (m *MultiPassExtractor) Extract(ctx context.Context, source, text string, useCache bool) (*ExtractionResult, int, error) {
	texts := m.splitter.Split(text)
	if len(texts) == 0 {
		return &ExtractionResult{}, 0, nil
	}

	slices := make([]*SliceExtraction, len(texts))
	var modelCalls atomic.Int64
	var wg sync.WaitGroup

	for i, sliceText := range texts {
		i, sliceText := i, sliceText
		wg.Add(1)
		task := func() {
			defer wg.Done()
			extraction, called := m.extractSlice(ctx, source, sliceText, useCache)
			if called {
				modelCalls.Add(1)
			}
			slices[i] = &SliceExtraction{Index: i, Extraction: extraction}
		}
		if err := m.pool.Submit(task); err != nil {
			// Pool released under us; run inline so no slice is lost.
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, int(modelCalls.Load()), err
	}

	result := MergeSlices(slices)
	if result.Incomplete {
		m.logger.Warn("document extraction incomplete",
			"source", source, "failedSlices", result.FailedSlices)
	}
	return result, int(modelCalls.Load()), nil
}

// extractSlice resolves one slice from cache or the model. The second
// return reports whether a model call was made.
func (m *MultiPassExtractor) extractSlice(ctx context.Context, source, sliceText string, useCache bool) (*ai.DocumentExtraction, bool) {
	hash := core.HashContent(sliceText)

	if useCache {
		if data, ok := m.cache.Get(hash); ok && data.Concepts != nil {
			return ExtractionFromCache(data), false
		}
	}

	var extraction *ai.DocumentExtraction
	err := reembed.RetryWithBackoff(ctx, func() error {
		var err error
		extraction, err = m.extractor.ExtractDocument(ctx, sliceText)
		return err
	}, m.maxRetries, m.retryDelay)
	if err != nil {
		m.logger.Warn("slice extraction failed", "source", source, "hash", hash, "err", err)
		return nil, true
	}

	// Cache before anyone consumes the result: a later crash costs
	// nothing that was already paid for.
	if err := m.cache.Set(hash, CacheRecord(source, extraction)); err != nil {
		m.logger.Warn("failed to cache slice extraction", "hash", hash, "err", err)
	}
	return extraction, true
}

// CacheRecord converts an extraction into its stage cache representation.
func CacheRecord(source string, ext *ai.DocumentExtraction) *stagecache.DocumentData {
	data := &stagecache.DocumentData{
		Source:  source,
		Summary: ext.Summary,
		Concepts: &stagecache.ConceptData{
			PrimaryConcepts: ext.PrimaryConcepts,
			TechnicalTerms:  ext.TechnicalTerms,
			Categories:      ext.Categories,
			Related:         ext.Related,
		},
	}
	if ext.Metadata != nil {
		data.Metadata = &stagecache.Metadata{
			Title:      ext.Metadata.Title,
			Author:     ext.Metadata.Author,
			Year:       ext.Metadata.Year,
			Publisher:  ext.Metadata.Publisher,
			Identifier: ext.Metadata.Identifier,
		}
	}
	return data
}

// ExtractionFromCache rebuilds an extraction from its cached form.
func ExtractionFromCache(data *stagecache.DocumentData) *ai.DocumentExtraction {
	ext := &ai.DocumentExtraction{Summary: data.Summary}
	if data.Concepts != nil {
		ext.PrimaryConcepts = data.Concepts.PrimaryConcepts
		ext.TechnicalTerms = data.Concepts.TechnicalTerms
		ext.Categories = data.Concepts.Categories
		ext.Related = data.Concepts.Related
	}
	if data.Metadata != nil {
		ext.Metadata = &ai.DocumentMetadata{
			Title:      data.Metadata.Title,
			Author:     data.Metadata.Author,
			Year:       data.Metadata.Year,
			Publisher:  data.Metadata.Publisher,
			Identifier: data.Metadata.Identifier,
		}
	}
	return ext
}
