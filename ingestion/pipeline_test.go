package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/ai/mock"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/stagecache"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineEnv struct {
	catalog  storage.CatalogRepository
	chunks   storage.ChunkRepository
	concepts storage.ConceptRepository
	cache    *stagecache.Cache
	provider *mock.MockProvider
	pipeline *Pipeline
}

func newPipelineEnv(t *testing.T, opts ...Option) *pipelineEnv {
	t.Helper()

	catalogRepo, chunkRepo, conceptRepo, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)

	cache, err := stagecache.New(stagecache.WithDir(t.TempDir()))
	require.NoError(t, err)

	provider := mock.NewMockProvider()

	p, err := NewPipeline(catalogRepo, chunkRepo, conceptRepo, provider, cache, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		p.Release()
		conceptRepo.Close()
		chunkRepo.Close()
		catalogRepo.Close()
		backend.Close()
	})

	return &pipelineEnv{
		catalog:  catalogRepo,
		chunks:   chunkRepo,
		concepts: conceptRepo,
		cache:    cache,
		provider: provider,
		pipeline: p,
	}
}

// raftExtraction is a canned extraction used across pipeline tests.
func raftExtraction() *ai.DocumentExtraction {
	return &ai.DocumentExtraction{
		PrimaryConcepts: []string{"consensus", "raft"},
		TechnicalTerms:  []string{"leader election"},
		Categories:      []string{"distributed systems"},
		Related:         map[string][]string{"consensus": {"leader election"}},
		Summary:         "Describes the Raft consensus algorithm.",
		Metadata:        &ai.DocumentMetadata{Title: "Raft Paper", Author: "Ongaro"},
	}
}

const raftText = "Raft reaches consensus through leader election.\n\nRaft replicates a log across servers."

func TestPipeline_IngestDocument(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	env.provider.GetMockExtractor().ExtractDocumentFunc = func(ctx context.Context, text string) (*ai.DocumentExtraction, error) {
		return raftExtraction(), nil
	}

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/raft.pdf", raftText))

	// Catalog entry carries the extraction.
	entry, err := env.catalog.GetCatalogEntry(ctx, "docs/raft.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Raft Paper", entry.Title)
	assert.Equal(t, []string{"consensus", "raft"}, entry.ConceptNames)
	assert.Equal(t, []core.ID{core.IDForName("consensus"), core.IDForName("raft")}, entry.ConceptIds)
	assert.Equal(t, []core.ID{core.IDForName("distributed systems")}, entry.CategoryIds)
	assert.Equal(t, "Describes the Raft consensus algorithm.", entry.Summary)

	// Concepts landed with their kinds.
	consensus, err := env.concepts.GetConceptByName(ctx, "consensus")
	require.NoError(t, err)
	assert.Equal(t, core.KindThematic, consensus.Kind)
	assert.Equal(t, []string{"docs/raft.pdf"}, consensus.Sources)
	assert.Equal(t, []string{"leader election"}, consensus.RelatedNames)

	term, err := env.concepts.GetConceptByName(ctx, "leader election")
	require.NoError(t, err)
	assert.Equal(t, core.KindTerminology, term.Kind)

	category, err := env.concepts.GetConceptByName(ctx, "distributed systems")
	require.NoError(t, err)
	assert.Equal(t, core.KindCategory, category.Kind)
	assert.NotEmpty(t, category.Summary)

	// Chunks embedded and tagged.
	chunks, err := env.chunks.GetChunksBySource(ctx, "docs/raft.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Vector)
	}

	stats := env.pipeline.Stats()
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 0, stats.PartialResults)

	// Extraction pinned in the stage cache under the document hash.
	_, ok := env.cache.Get(core.HashContent(raftText))
	assert.True(t, ok)
}

func TestPipeline_EmptySourceRejected(t *testing.T) {
	env := newPipelineEnv(t)
	assert.ErrorIs(t, env.pipeline.IngestDocument(context.Background(), "", "text"), ErrEmptySource)
}

func TestPipeline_CacheHitSkipsExtraction(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	extractor := env.provider.GetMockExtractor()
	extractor.ExtractDocumentFunc = func(ctx context.Context, text string) (*ai.DocumentExtraction, error) {
		return raftExtraction(), nil
	}

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/raft.pdf", raftText))
	callsAfterFirst := extractor.CallCount()

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/raft.pdf", raftText))
	assert.Equal(t, callsAfterFirst, extractor.CallCount())

	stats := env.pipeline.Stats()
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.CacheHits)
}

func TestPipeline_CacheOnlyMiss(t *testing.T) {
	env := newPipelineEnv(t, WithCacheOnly(true))

	err := env.pipeline.IngestDocument(context.Background(), "docs/raft.pdf", raftText)
	assert.ErrorIs(t, err, ErrCacheOnlyMiss)
	assert.Equal(t, 0, env.provider.GetMockExtractor().CallCount())

	// Nothing was written.
	_, err = env.catalog.GetCatalogEntry(context.Background(), "docs/raft.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_VerifyFailureAbortsBeforeAnyWork(t *testing.T) {
	env := newPipelineEnv(t)
	env.provider.VerifyFunc = func(ctx context.Context) error {
		return ai.ErrUnauthorized
	}

	err := env.pipeline.IngestDocument(context.Background(), "docs/raft.pdf", raftText)
	assert.ErrorIs(t, err, ai.ErrUnauthorized)
	assert.Equal(t, 0, env.provider.GetMockExtractor().CallCount())

	_, err = env.catalog.GetCatalogEntry(context.Background(), "docs/raft.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_VerifyRunsOncePerPipeline(t *testing.T) {
	env := newPipelineEnv(t)

	verifies := 0
	env.provider.VerifyFunc = func(ctx context.Context) error {
		verifies++
		return nil
	}

	ctx := context.Background()
	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/a.txt", "First document about systems."))
	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/b.txt", "Second document about compilers."))
	assert.Equal(t, 1, verifies)
}

func TestPipeline_MultiPassPartialFailure(t *testing.T) {
	env := newPipelineEnv(t,
		WithSplitterOptions(WithMultiPassThreshold(10), WithSliceTokens(10)),
		WithRetries(2, 0),
	)
	ctx := context.Background()

	// Three paragraphs, each its own slice; the middle one always fails.
	text := strings.Join([]string{
		"the first paragraph carries plenty of words about consensus and related machinery",
		"POISON the second paragraph never parses no matter how many times it is retried",
		"the third paragraph carries plenty of words about replication and state machines",
	}, "\n\n")

	attempts := 0
	env.provider.GetMockExtractor().ExtractDocumentFunc = func(ctx context.Context, sliceText string) (*ai.DocumentExtraction, error) {
		if strings.Contains(sliceText, "POISON") {
			attempts++
			return nil, errors.New("model choked")
		}
		if strings.Contains(sliceText, "consensus") {
			return &ai.DocumentExtraction{PrimaryConcepts: []string{"consensus"}, Summary: "First."}, nil
		}
		return &ai.DocumentExtraction{PrimaryConcepts: []string{"replication"}, Summary: "Third."}, nil
	}

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/big.pdf", text))

	// Failed slice was retried, then given up on.
	assert.Equal(t, 2, attempts)

	// Surviving slices still produced a document.
	entry, err := env.catalog.GetCatalogEntry(ctx, "docs/big.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"consensus", "replication"}, entry.ConceptNames)

	stats := env.pipeline.Stats()
	assert.Equal(t, 1, stats.PartialResults)

	// A partial result is not pinned under the document hash: the failed
	// slice must be retried on the next run.
	_, ok := env.cache.Get(core.HashContent(text))
	assert.False(t, ok)

	// The completed slices are cached individually, so a rerun only pays
	// for the poisoned one.
	for _, para := range strings.Split(text, "\n\n") {
		_, ok := env.cache.Get(core.HashContent(para))
		assert.Equal(t, !strings.Contains(para, "POISON"), ok)
	}
}

func TestPipeline_CountsIdentifierCollisions(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	// "costarring" and "liquid" share a 32-bit FNV-1a hash.
	require.Equal(t, core.IDForName("costarring"), core.IDForName("liquid"))

	env.provider.GetMockExtractor().ExtractDocumentFunc = func(ctx context.Context, text string) (*ai.DocumentExtraction, error) {
		return &ai.DocumentExtraction{
			PrimaryConcepts: []string{"costarring", "liquid"},
			Summary:         "Two unrelated words that hash alike.",
		}, nil
	}

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/words.txt", "costarring\n\nliquid"))

	stats := env.pipeline.Stats()
	assert.Equal(t, 1, stats.Collisions)

	// First-registered name wins in the store.
	kept, err := env.concepts.GetConcept(ctx, core.IDForName("costarring"))
	require.NoError(t, err)
	assert.Equal(t, "costarring", kept.Name)
}

func TestPipeline_ThesaurusEnrichment(t *testing.T) {
	thesaurus := mock.NewMockThesaurus()
	thesaurus.Entries = map[string]*ai.Expansion{
		"consensus": {
			Synonyms:      []string{"agreement"},
			BroaderTerms:  []string{"coordination"},
			NarrowerTerms: []string{"leader election"},
		},
	}

	env := newPipelineEnv(t, WithThesaurus(thesaurus))
	ctx := context.Background()

	env.provider.GetMockExtractor().ExtractDocumentFunc = func(ctx context.Context, text string) (*ai.DocumentExtraction, error) {
		return &ai.DocumentExtraction{PrimaryConcepts: []string{"consensus", "raft"}}, nil
	}

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/raft.pdf", raftText))

	consensus, err := env.concepts.GetConceptByName(ctx, "consensus")
	require.NoError(t, err)
	assert.Equal(t, []string{"agreement"}, consensus.Synonyms)
	assert.Equal(t, []string{"coordination"}, consensus.BroaderTerms)
	assert.Equal(t, []string{"leader election"}, consensus.NarrowerTerms)
	assert.Equal(t, core.EnrichmentHybrid, consensus.Enrichment)

	// No expansion known for raft: stays corpus-only.
	raft, err := env.concepts.GetConceptByName(ctx, "raft")
	require.NoError(t, err)
	assert.Equal(t, core.EnrichmentCorpus, raft.Enrichment)
}

func TestPipeline_ReingestReplacesChunks(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/a.txt", "Original text about databases."))
	first, err := env.chunks.GetChunksBySource(ctx, "docs/a.txt")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, env.pipeline.IngestDocument(ctx, "docs/a.txt", "Rewritten text about compilers instead."))
	second, err := env.chunks.GetChunksBySource(ctx, "docs/a.txt")
	require.NoError(t, err)
	require.NotEmpty(t, second)

	for _, chunk := range second {
		assert.NotEqual(t, first[0].Id, chunk.Id)
		assert.Contains(t, chunk.Text, "Rewritten")
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	catalogRepo, chunkRepo, conceptRepo, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cache, err := stagecache.New(stagecache.WithDir(t.TempDir()))
	require.NoError(t, err)
	provider := mock.NewMockProvider()

	_, err = NewPipeline(nil, chunkRepo, conceptRepo, provider, cache)
	assert.ErrorIs(t, err, ErrCatalogRepositoryRequired)

	_, err = NewPipeline(catalogRepo, nil, conceptRepo, provider, cache)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(catalogRepo, chunkRepo, nil, provider, cache)
	assert.ErrorIs(t, err, ErrConceptRepositoryRequired)

	_, err = NewPipeline(catalogRepo, chunkRepo, conceptRepo, nil, cache)
	assert.ErrorIs(t, err, ErrProviderRequired)

	_, err = NewPipeline(catalogRepo, chunkRepo, conceptRepo, provider, nil)
	assert.ErrorIs(t, err, ErrCacheRequired)
}
