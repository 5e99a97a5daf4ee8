package badger

import (
	"context"
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (storage.CatalogRepository, storage.ChunkRepository, storage.ConceptRepository) {
	t.Helper()
	catalogRepo, chunkRepo, conceptRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		conceptRepo.Close()
		chunkRepo.Close()
		catalogRepo.Close()
		backend.Close()
	})
	return catalogRepo, chunkRepo, conceptRepo
}

func catalogFixture(source string, conceptNames ...string) *core.CatalogEntry {
	ids := make([]core.ID, len(conceptNames))
	for i, name := range conceptNames {
		ids[i] = core.IDForName(name)
	}
	return &core.CatalogEntry{
		Source:       source,
		Title:        "Title of " + source,
		Summary:      "Summary of " + source,
		ConceptNames: conceptNames,
		ConceptIds:   ids,
	}
}

func TestCatalogRepository_UpsertAndGet(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)
	ctx := context.Background()

	entry := catalogFixture("docs/raft.pdf", "consensus", "replicated log")
	added, err := catalogRepo.UpsertCatalogEntry(ctx, entry)
	require.NoError(t, err)
	assert.False(t, added.InsertedAt.IsZero())
	assert.False(t, added.UpdatedAt.IsZero())

	got, err := catalogRepo.GetCatalogEntry(ctx, "docs/raft.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Title of docs/raft.pdf", got.Title)
	assert.Equal(t, []string{"consensus", "replicated log"}, got.ConceptNames)
	assert.Equal(t, core.IDForName("consensus"), got.ConceptIds[0])
}

func TestCatalogRepository_GetMissing(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)

	_, err := catalogRepo.GetCatalogEntry(context.Background(), "docs/nope.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCatalogRepository_UpsertReplacesAndKeepsInsertedAt(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)
	ctx := context.Background()

	first, err := catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/a.pdf", "consensus"))
	require.NoError(t, err)
	inserted := first.InsertedAt

	updated := catalogFixture("docs/a.pdf", "fault tolerance")
	updated.Title = "New Title"
	_, err = catalogRepo.UpsertCatalogEntry(ctx, updated)
	require.NoError(t, err)

	got, err := catalogRepo.GetCatalogEntry(ctx, "docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, inserted, got.InsertedAt)
	assert.Equal(t, []string{"fault tolerance"}, got.ConceptNames)
}

func TestCatalogRepository_TimestampsSurviveRoundTrip(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)
	ctx := context.Background()

	// The encoding keeps microseconds, so the timestamps handed back by
	// upsert must already be at that precision or a later read disagrees.
	added, err := catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/a.pdf", "consensus"))
	require.NoError(t, err)

	got, err := catalogRepo.GetCatalogEntry(ctx, "docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, added.InsertedAt, got.InsertedAt)
	assert.Equal(t, added.UpdatedAt, got.UpdatedAt)
}

func TestCatalogRepository_ValidationRejected(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)

	entry := catalogFixture("docs/bad.pdf", "consensus")
	entry.ConceptIds[0] = 42 // not the hash of the name

	_, err := catalogRepo.UpsertCatalogEntry(context.Background(), entry)
	assert.ErrorIs(t, err, core.ErrIdentifierMismatch)
}

func TestCatalogRepository_FindByConcept(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/raft.pdf", "consensus"))
	require.NoError(t, err)
	_, err = catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/paxos.pdf", "consensus"))
	require.NoError(t, err)
	_, err = catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/cooking.pdf", "sourdough"))
	require.NoError(t, err)

	sources, err := catalogRepo.FindCatalogByConcept(ctx, core.IDForName("consensus"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"docs/raft.pdf", "docs/paxos.pdf"}, sources)

	sources, err = catalogRepo.FindCatalogByConcept(ctx, core.IDForName("unknown"))
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestCatalogRepository_IndexUpdatedOnUpsert(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/a.pdf", "consensus"))
	require.NoError(t, err)
	_, err = catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/a.pdf", "fault tolerance"))
	require.NoError(t, err)

	// The old tag must no longer resolve to the document.
	sources, err := catalogRepo.FindCatalogByConcept(ctx, core.IDForName("consensus"))
	require.NoError(t, err)
	assert.Empty(t, sources)

	sources, err = catalogRepo.FindCatalogByConcept(ctx, core.IDForName("fault tolerance"))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.pdf"}, sources)
}

func TestCatalogRepository_ListAndDelete(t *testing.T) {
	catalogRepo, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/a.pdf", "consensus"))
	require.NoError(t, err)
	_, err = catalogRepo.UpsertCatalogEntry(ctx, catalogFixture("docs/b.pdf", "caching"))
	require.NoError(t, err)

	entries, err := catalogRepo.ListCatalogEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, catalogRepo.DeleteCatalogEntry(ctx, "docs/a.pdf"))

	_, err = catalogRepo.GetCatalogEntry(ctx, "docs/a.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	sources, err := catalogRepo.FindCatalogByConcept(ctx, core.IDForName("consensus"))
	require.NoError(t, err)
	assert.Empty(t, sources)

	assert.ErrorIs(t, catalogRepo.DeleteCatalogEntry(ctx, "docs/a.pdf"), storage.ErrNotFound)
}
