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
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/reembed"
	"github.com/poiesic/corpora/stagecache"
	"github.com/poiesic/corpora/storage"
)

// RunStats accumulates what a pipeline did across IngestDocument calls.
type RunStats struct {
	// Documents is the number of documents fully ingested.
	Documents int
	// CacheHits counts documents and slices served from the stage cache.
	CacheHits int
	// ModelCalls counts extraction model invocations.
	ModelCalls int
	// PartialResults counts documents whose extraction was incomplete.
	PartialResults int
	// Collisions counts distinct concept names that hashed to an already
	// registered identifier.
	Collisions int
}

// Pipeline orchestrates document ingestion: extraction through the stage
// cache, concept and catalog upserts, then chunking and embedding. Write
// order is concepts before entities, and the cache is written before the
// store, so an aborted run leaves cached work a rerun can pick up.
type Pipeline struct {
	catalog  storage.CatalogRepository
	chunks   storage.ChunkRepository
	concepts storage.ConceptRepository
	provider ai.Provider

	cache     *stagecache.Cache
	thesaurus ai.Thesaurus
	ids       *core.Registry
	splitter  *Splitter
	chunker   *Chunker
	multipass *MultiPassExtractor
	summaries *SummaryUpdater
	pool      *ants.Pool

	useCache    bool
	cacheOnly   bool
	chunkTokens int
	maxRetries  int
	retryDelay  time.Duration

	verified bool
	mu       sync.Mutex
	stats    RunStats
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for slice extraction.
// Default is half the CPU count, minimum 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("pool size must be at least 1, got %d", size)
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithThesaurus attaches an external vocabulary service. Primary concepts
// get synonym and broader/narrower enrichment when one is present.
func WithThesaurus(thesaurus ai.Thesaurus) Option {
	return func(p *Pipeline) error {
		p.thesaurus = thesaurus
		return nil
	}
}

// WithUseCache controls stage cache reads. Writes always happen.
// Default is true.
func WithUseCache(use bool) Option {
	return func(p *Pipeline) error {
		p.useCache = use
		return nil
	}
}

// WithCacheOnly makes ingestion serve extractions exclusively from the
// stage cache; a miss returns ErrCacheOnlyMiss instead of calling a model.
func WithCacheOnly(only bool) Option {
	return func(p *Pipeline) error {
		p.cacheOnly = only
		return nil
	}
}

// WithSplitterOptions overrides the document splitter thresholds.
func WithSplitterOptions(opts ...SplitterOption) Option {
	return func(p *Pipeline) error {
		p.splitter = NewSplitter(opts...)
		return nil
	}
}

// WithChunkTokens sets the retrieval chunk size.
// Default is DefaultChunkTokens.
func WithChunkTokens(tokens int) Option {
	return func(p *Pipeline) error {
		if tokens < 1 {
			return fmt.Errorf("chunk tokens must be at least 1, got %d", tokens)
		}
		p.chunkTokens = tokens
		return nil
	}
}

// WithRetries sets the retry policy for transient model failures.
func WithRetries(maxRetries int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxRetries < 1 {
			return fmt.Errorf("max retries must be at least 1, got %d", maxRetries)
		}
		p.maxRetries = maxRetries
		p.retryDelay = baseDelay
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	catalog storage.CatalogRepository,
	chunks storage.ChunkRepository,
	concepts storage.ConceptRepository,
	provider ai.Provider,
	cache *stagecache.Cache,
	opts ...Option,
) (*Pipeline, error) {
	if catalog == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if concepts == nil {
		return nil, ErrConceptRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		catalog:     catalog,
		chunks:      chunks,
		concepts:    concepts,
		provider:    provider,
		cache:       cache,
		pool:        pool,
		useCache:    true,
		chunkTokens: DefaultChunkTokens,
		maxRetries:  3,
		retryDelay:  time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.splitter == nil {
		p.splitter = NewSplitter()
	}
	p.ids = core.NewRegistry(core.WithRegistryLogger(p.logger))
	p.chunker = NewChunker(p.splitter, p.chunkTokens)
	p.multipass = NewMultiPassExtractor(provider.DocumentExtractor(), p.splitter, p.cache,
		p.pool, p.maxRetries, p.retryDelay, p.logger)
	p.summaries = NewSummaryUpdater(concepts, provider.Summarizer(), p.logger)

	return p, nil
}

// IngestDocument runs the full pipeline for one document. The first call
// verifies the provider before anything is scanned or written; an auth
// failure aborts with ai.ErrUnauthorized.
func (p *Pipeline) IngestDocument(ctx context.Context, source, text string) error {
	if source == "" {
		return ErrEmptySource
	}

	if err := p.preflight(ctx); err != nil {
		return err
	}

	result, err := p.extract(ctx, source, text)
	if err != nil {
		return err
	}

	if err := p.writeConcepts(ctx, source, result); err != nil {
		return err
	}
	if err := p.writeCatalog(ctx, source, result); err != nil {
		return err
	}
	if err := p.writeChunks(ctx, source, text, result); err != nil {
		return err
	}

	p.mu.Lock()
	p.stats.Documents++
	if result.Incomplete {
		p.stats.PartialResults++
	}
	p.mu.Unlock()

	p.logger.Info("document ingested", "source", source,
		"concepts", len(result.PrimaryConcepts), "incomplete", result.Incomplete)
	return nil
}

// Stats returns a copy of the accumulated run statistics.
func (p *Pipeline) Stats() RunStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	stats.Collisions = p.ids.Collisions()
	return stats
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// preflight verifies the provider once per pipeline lifetime.
func (p *Pipeline) preflight(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.verified {
		return nil
	}
	if err := p.provider.Verify(ctx); err != nil {
		return err
	}
	p.verified = true
	return nil
}

// extract resolves the document extraction from cache or the model.
// The extraction is cached before any store write happens.
func (p *Pipeline) extract(ctx context.Context, source, text string) (*ExtractionResult, error) {
	docHash := core.HashContent(text)

	if p.useCache {
		if data, ok := p.cache.Get(docHash); ok && data.Concepts != nil {
			p.logger.Debug("stage cache hit", "source", source, "hash", docHash)
			p.mu.Lock()
			p.stats.CacheHits++
			p.mu.Unlock()
			result := &ExtractionResult{DocumentExtraction: *ExtractionFromCache(data)}
			return result, nil
		}
	}
	if p.cacheOnly {
		return nil, fmt.Errorf("%w: %s", ErrCacheOnlyMiss, source)
	}

	result, modelCalls, err := p.multipass.Extract(ctx, source, text, p.useCache)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.stats.ModelCalls += modelCalls
	p.mu.Unlock()

	// Complete extractions are pinned under the document hash so reruns
	// skip straight past extraction. Partial ones are not: the failed
	// slices must be retried next run.
	if !result.Incomplete {
		if err := p.cache.Set(docHash, CacheRecord(source, &result.DocumentExtraction)); err != nil {
			p.logger.Warn("failed to cache document extraction", "source", source, "err", err)
		}
	}
	return result, nil
}

// writeConcepts upserts every concept the extraction observed: thematic
// primary concepts, terminology, and categories with their summaries.
// Concepts are written before any entity that references them.
func (p *Pipeline) writeConcepts(ctx context.Context, source string, result *ExtractionResult) error {
	entries := make([]*core.ConceptEntry, 0,
		len(result.PrimaryConcepts)+len(result.TechnicalTerms)+len(result.Categories))

	for _, name := range result.PrimaryConcepts {
		entry := &core.ConceptEntry{
			Id:           p.ids.IDOf(name),
			Name:         name,
			Kind:         core.KindThematic,
			Sources:      []string{source},
			RelatedNames: result.Related[name],
		}
		p.expand(ctx, entry)
		entries = append(entries, entry)
	}
	for _, name := range result.TechnicalTerms {
		entries = append(entries, &core.ConceptEntry{
			Id:      p.ids.IDOf(name),
			Name:    name,
			Kind:    core.KindTerminology,
			Sources: []string{source},
		})
	}

	summaries, err := p.summaries.Summaries(ctx, result.Categories)
	if err != nil {
		return fmt.Errorf("category summaries: %w", err)
	}
	for _, name := range result.Categories {
		entries = append(entries, &core.ConceptEntry{
			Id:      p.ids.IDOf(name),
			Name:    name,
			Kind:    core.KindCategory,
			Sources: []string{source},
			Summary: summaries[name],
		})
	}

	if len(entries) == 0 {
		return nil
	}
	if _, err := p.concepts.UpsertConceptEntries(ctx, entries...); err != nil {
		return fmt.Errorf("concept upsert: %w", err)
	}
	return nil
}

// expand enriches a concept entry from the thesaurus when one is wired.
func (p *Pipeline) expand(ctx context.Context, entry *core.ConceptEntry) {
	if p.thesaurus == nil {
		return
	}
	expansion, err := p.thesaurus.Expand(ctx, entry.Name)
	if err != nil {
		p.logger.Warn("thesaurus expansion failed", "concept", entry.Name, "err", err)
		return
	}
	if expansion.IsEmpty() {
		return
	}
	entry.Synonyms = expansion.Synonyms
	entry.BroaderTerms = expansion.BroaderTerms
	entry.NarrowerTerms = expansion.NarrowerTerms
	entry.Enrichment = core.EnrichmentHybrid
}

// writeCatalog upserts the document's catalog entry.
func (p *Pipeline) writeCatalog(ctx context.Context, source string, result *ExtractionResult) error {
	title := filepath.Base(source)
	if result.Metadata != nil && result.Metadata.Title != "" {
		title = result.Metadata.Title
	}

	conceptIds := make([]core.ID, len(result.PrimaryConcepts))
	for i, name := range result.PrimaryConcepts {
		conceptIds[i] = p.ids.IDOf(name)
	}
	categoryIds := make([]core.ID, len(result.Categories))
	for i, name := range result.Categories {
		categoryIds[i] = p.ids.IDOf(name)
	}

	entry := &core.CatalogEntry{
		Source:       source,
		Title:        title,
		Summary:      result.Summary,
		ConceptNames: result.PrimaryConcepts,
		ConceptIds:   conceptIds,
		CategoryIds:  categoryIds,
	}
	if _, err := p.catalog.UpsertCatalogEntry(ctx, entry); err != nil {
		return fmt.Errorf("catalog upsert: %w", err)
	}
	return nil
}

// writeChunks cuts the document into retrieval chunks, embeds them, and
// replaces the document's stored chunks.
func (p *Pipeline) writeChunks(ctx context.Context, source, text string, result *ExtractionResult) error {
	names := core.MergeNameSets(result.PrimaryConcepts, result.TechnicalTerms)
	chunks := p.chunker.ChunkDocument(source, text, names)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := reembed.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = p.provider.Embedder().EmbedTexts(ctx, texts)
		return err
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return fmt.Errorf("chunk embedding: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}
	for i := range chunks {
		chunks[i].Vector = reembed.NormalizeVector(embeddings[i])
	}

	// Stale chunks from a previous version of the document go away before
	// the fresh set lands.
	if _, err := p.chunks.DeleteChunksBySource(ctx, source); err != nil {
		return fmt.Errorf("chunk cleanup: %w", err)
	}
	if _, err := p.chunks.UpsertChunkEntries(ctx, chunks...); err != nil {
		return fmt.Errorf("chunk upsert: %w", err)
	}
	return nil
}
