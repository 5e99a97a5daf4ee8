package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/poiesic/corpora/ai/mock"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReembedStore(t *testing.T) (storage.CatalogRepository, storage.ChunkRepository, storage.ConceptRepository) {
	t.Helper()
	catalogRepo, chunkRepo, conceptRepo, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		conceptRepo.Close()
		chunkRepo.Close()
		catalogRepo.Close()
		backend.Close()
	})
	return catalogRepo, chunkRepo, conceptRepo
}

func seedChunks(t *testing.T, catalogRepo storage.CatalogRepository, chunkRepo storage.ChunkRepository, texts ...string) []*core.ChunkEntry {
	t.Helper()
	ctx := context.Background()

	_, err := catalogRepo.UpsertCatalogEntry(ctx, &core.CatalogEntry{Source: "docs/a.pdf", Title: "A"})
	require.NoError(t, err)

	entries := make([]*core.ChunkEntry, len(texts))
	for i, text := range texts {
		entries[i] = &core.ChunkEntry{Source: "docs/a.pdf", Text: text}
	}
	chunks, err := chunkRepo.UpsertChunkEntries(ctx, entries...)
	require.NoError(t, err)
	return chunks
}

func TestReembedder_ReplacesAllVectors(t *testing.T) {
	catalogRepo, chunkRepo, _ := newReembedStore(t)
	chunks := seedChunks(t, catalogRepo, chunkRepo, "first chunk text", "second chunk text", "third chunk text")

	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer
	r := NewReembedder(chunkRepo, embedder, &Config{BatchSize: 2, ReportInterval: 1, MaxRetries: 2, RetryDelay: 0}, &out)

	require.NoError(t, r.Run(context.Background()))

	for _, chunk := range chunks {
		got, err := chunkRepo.GetChunk(context.Background(), chunk.Id)
		require.NoError(t, err)
		require.NotEmpty(t, got.Vector)
		assert.InDelta(t, 1.0, magnitude(got.Vector), 1e-4)
	}
	// Two batches at batch size 2 for three chunks.
	assert.Equal(t, 2, embedder.CallCount())
	assert.Contains(t, out.String(), "Reembedding complete")
}

func TestReembedder_EmptyStore(t *testing.T) {
	_, chunkRepo, _ := newReembedStore(t)

	var out bytes.Buffer
	r := NewReembedder(chunkRepo, mock.NewMockEmbedder(), nil, &out)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "No chunks found")
}

func TestReembedder_PermanentEmbedFailure(t *testing.T) {
	catalogRepo, chunkRepo, _ := newReembedStore(t)
	seedChunks(t, catalogRepo, chunkRepo, "some chunk text")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service down")
	}

	var out bytes.Buffer
	r := NewReembedder(chunkRepo, embedder, &Config{BatchSize: 10, ReportInterval: 1, MaxRetries: 2, RetryDelay: 0}, &out)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service down")
}

func TestConceptReembedder_EmbedsNameAndSummary(t *testing.T) {
	_, _, conceptRepo := newReembedStore(t)
	ctx := context.Background()

	_, err := conceptRepo.UpsertConceptEntries(ctx,
		&core.ConceptEntry{Name: "consensus", Kind: core.KindThematic, Sources: []string{"docs/a.pdf"}, Summary: "Agreement among replicas."},
		&core.ConceptEntry{Name: "caching", Kind: core.KindCategory, Sources: []string{"docs/a.pdf"}},
	)
	require.NoError(t, err)

	var embedded []string
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		embedded = append(embedded, texts...)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}

	var buf bytes.Buffer
	r := NewConceptReembedder(conceptRepo, embedder, nil, &buf)
	require.NoError(t, r.Run(ctx))

	assert.Contains(t, embedded, "consensus: Agreement among replicas.")
	assert.Contains(t, embedded, "caching")

	got, err := conceptRepo.GetConceptByName(ctx, "consensus")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Embedding)
}
