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


package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// DefaultCandidateLimit bounds how many chunks vector similarity feeds
// into the ranker.
const DefaultCandidateLimit = 100

// ChunkResult is one ranked chunk.
type ChunkResult struct {
	Chunk   *core.ChunkEntry
	Score   float64
	Signals Signals
}

// DocumentResult is one ranked catalog entry.
type DocumentResult struct {
	Entry   *core.CatalogEntry
	Score   float64
	Signals Signals
}

// Searcher answers queries against the store: it embeds the query, derives
// query concepts, expands terms through the thesaurus, and ranks chunk or
// document candidates through one shared Ranker.
type Searcher struct {
	catalog  storage.CatalogRepository
	chunks   storage.ChunkRepository
	concepts storage.ConceptRepository
	embedder ai.Embedder

	thesaurus      ai.Thesaurus
	ranker         *Ranker
	candidateLimit int
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithWeights overrides the default signal weights.
func WithWeights(weights Weights) Option {
	return func(s *Searcher) error {
		ranker, err := NewRanker(weights)
		if err != nil {
			return err
		}
		s.ranker = ranker
		return nil
	}
}

// WithThesaurus attaches a thesaurus for query-term expansion. Without one
// the thesaurus signal is always zero.
func WithThesaurus(thesaurus ai.Thesaurus) Option {
	return func(s *Searcher) error {
		s.thesaurus = thesaurus
		return nil
	}
}

// WithCandidateLimit bounds the vector-similarity candidate pool.
func WithCandidateLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit < 1 {
			return fmt.Errorf("candidate limit must be at least 1, got %d", limit)
		}
		s.candidateLimit = limit
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a searcher over the given repositories.
func NewSearcher(catalog storage.CatalogRepository, chunks storage.ChunkRepository,
	concepts storage.ConceptRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {

	if catalog == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if concepts == nil {
		return nil, ErrConceptRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ranker, err := NewRanker(DefaultWeights())
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		catalog:        catalog,
		chunks:         chunks,
		concepts:       concepts,
		embedder:       embedder,
		ranker:         ranker,
		candidateLimit: DefaultCandidateLimit,
		logger:         slog.Default().With("component", "searcher"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SearchChunks ranks chunks against a query. Candidates come from vector
// similarity plus every chunk tagged with a query concept.
func (s *Searcher) SearchChunks(ctx context.Context, queryText string, limit int) ([]ChunkResult, error) {
	query, err := s.buildQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}

	entries, err := s.chunkCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	titles := make(map[string]string)
	candidates := make([]Candidate, len(entries))
	byKey := make(map[string]*core.ChunkEntry, len(entries))
	for i, chunk := range entries {
		key := strconv.FormatUint(uint64(chunk.Id), 10)
		byKey[key] = chunk
		candidates[i] = Candidate{
			Key:        key,
			Title:      s.documentTitle(ctx, titles, chunk.Source),
			Source:     chunk.Source,
			Text:       chunk.Text,
			Vector:     chunk.Vector,
			ConceptIds: chunk.ConceptIds,
		}
	}

	ranked := s.ranker.Rank(*query, candidates, limit)
	results := make([]ChunkResult, len(ranked))
	for i, r := range ranked {
		results[i] = ChunkResult{
			Chunk:   byKey[r.Candidate.Key],
			Score:   r.Score,
			Signals: r.Signals,
		}
	}
	return results, nil
}

// SearchDocuments ranks catalog entries against a query. A document's
// vector is the mean of its chunk vectors; its text is title, summary and
// concept names.
func (s *Searcher) SearchDocuments(ctx context.Context, queryText string, limit int) ([]DocumentResult, error) {
	query, err := s.buildQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}

	entries, err := s.catalog.ListCatalogEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, len(entries))
	byKey := make(map[string]*core.CatalogEntry, len(entries))
	for i, entry := range entries {
		vector, err := s.documentVector(ctx, entry.Source)
		if err != nil {
			return nil, err
		}

		text := strings.Join(append([]string{entry.Title, entry.Summary}, entry.ConceptNames...), " ")
		byKey[entry.Source] = entry
		candidates[i] = Candidate{
			Key:        entry.Source,
			Title:      entry.Title,
			Source:     entry.Source,
			Text:       text,
			Vector:     vector,
			ConceptIds: entry.ConceptIds,
		}
	}

	ranked := s.ranker.Rank(*query, candidates, limit)
	results := make([]DocumentResult, len(ranked))
	for i, r := range ranked {
		results[i] = DocumentResult{
			Entry:   byKey[r.Candidate.Key],
			Score:   r.Score,
			Signals: r.Signals,
		}
	}
	return results, nil
}

// buildQuery embeds the query text, derives concept ids from it and
// collects thesaurus expansion terms.
func (s *Searcher) buildQuery(ctx context.Context, text string) (*Query, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	tokens := Tokenize(text)
	conceptIds, conceptNames := s.queryConcepts(ctx, text, tokens)

	return &Query{
		Text:           text,
		Tokens:         tokens,
		Embedding:      embedding,
		ConceptIds:     conceptIds,
		ExpansionTerms: s.expand(ctx, conceptNames, tokens),
	}, nil
}

// queryConcepts matches the query against known concept names: the whole
// query, each token, and each adjacent token pair.
func (s *Searcher) queryConcepts(ctx context.Context, text string, tokens []string) ([]core.ID, []string) {
	names := []string{core.NormalizeName(text)}
	names = append(names, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		names = append(names, tokens[i]+" "+tokens[i+1])
	}

	var ids []core.ID
	var matched []string
	seen := make(map[core.ID]bool)
	for _, name := range names {
		concept, err := s.concepts.GetConceptByName(ctx, name)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("concept lookup failed", "name", name, "err", err)
			}
			continue
		}
		if seen[concept.Id] {
			continue
		}
		seen[concept.Id] = true
		ids = append(ids, concept.Id)
		matched = append(matched, concept.Name)
	}
	return ids, matched
}

// expand collects thesaurus expansions for the matched concept names, or
// for the raw tokens when nothing matched. Expansion failures degrade the
// signal, never the search.
func (s *Searcher) expand(ctx context.Context, conceptNames, tokens []string) []string {
	if s.thesaurus == nil {
		return nil
	}

	names := conceptNames
	if len(names) == 0 {
		names = tokens
	}

	var terms []string
	for _, name := range names {
		expansion, err := s.thesaurus.Expand(ctx, name)
		if err != nil {
			s.logger.Warn("thesaurus expansion failed", "name", name, "err", err)
			continue
		}
		if expansion == nil || expansion.IsEmpty() {
			continue
		}
		terms = core.MergeNameSets(terms, expansion.Synonyms)
		terms = core.MergeNameSets(terms, expansion.BroaderTerms)
		terms = core.MergeNameSets(terms, expansion.NarrowerTerms)
	}
	return terms
}

// chunkCandidates unions vector-similar chunks with chunks tagged by any
// query concept, preserving first-seen order.
func (s *Searcher) chunkCandidates(ctx context.Context, query *Query) ([]*core.ChunkEntry, error) {
	matches, err := s.chunks.FindSimilarChunks(ctx, query.Embedding, 0, s.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar chunks: %w", err)
	}

	var entries []*core.ChunkEntry
	seen := make(map[core.ChunkID]bool)
	for _, m := range matches {
		if seen[m.Chunk.Id] {
			continue
		}
		seen[m.Chunk.Id] = true
		entries = append(entries, m.Chunk)
	}

	for _, id := range query.ConceptIds {
		chunkIds, err := s.chunks.FindChunksByConcept(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to find chunks by concept: %w", err)
		}
		for _, chunkID := range chunkIds {
			if seen[chunkID] {
				continue
			}
			chunk, err := s.chunks.GetChunk(ctx, chunkID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return nil, err
			}
			seen[chunkID] = true
			entries = append(entries, chunk)
		}
	}
	return entries, nil
}

// documentTitle resolves a source path to its catalog title, memoized per
// search. Sources without a catalog entry fall back to the filename.
func (s *Searcher) documentTitle(ctx context.Context, memo map[string]string, source string) string {
	if title, ok := memo[source]; ok {
		return title
	}

	title := filepath.Base(source)
	entry, err := s.catalog.GetCatalogEntry(ctx, source)
	if err == nil && entry.Title != "" {
		title = entry.Title
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("title lookup failed", "source", source, "err", err)
	}
	memo[source] = title
	return title
}

// documentVector averages a document's chunk vectors. Documents without
// embedded chunks get no vector signal.
func (s *Searcher) documentVector(ctx context.Context, source string) ([]float32, error) {
	chunks, err := s.chunks.GetChunksBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for %s: %w", source, err)
	}

	var sum []float64
	counted := 0
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(chunk.Vector))
		}
		if len(chunk.Vector) != len(sum) {
			continue
		}
		for i, v := range chunk.Vector {
			sum[i] += float64(v)
		}
		counted++
	}
	if counted == 0 {
		return nil, nil
	}

	mean := make([]float32, len(sum))
	for i, v := range sum {
		mean[i] = float32(v / float64(counted))
	}
	return mean, nil
}
