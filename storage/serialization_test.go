package storage

import (
	"testing"
	"time"

	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalIDs(t *testing.T) {
	id := core.IDForName("software engineering")
	decoded, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	chunkID := core.ChunkIDFromContent("chunk body")
	decodedChunk, err := UnmarshalChunkID(MarshalChunkID(chunkID))
	require.NoError(t, err)
	assert.Equal(t, chunkID, decodedChunk)
}

func TestMarshalUnmarshalEntries(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := &core.CatalogEntry{
		Source:       "docs/a.pdf",
		Title:        "A",
		ConceptNames: []string{"consensus"},
		ConceptIds:   []core.ID{core.IDForName("consensus")},
		InsertedAt:   now,
		UpdatedAt:    now,
	}
	decodedEntry, err := UnmarshalCatalogEntry(MarshalCatalogEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decodedEntry)

	chunk := &core.ChunkEntry{
		Id:         core.ChunkIDFromContent("x"),
		Source:     "docs/a.pdf",
		Text:       "x",
		Vector:     []float32{1, 0},
		InsertedAt: now,
		UpdatedAt:  now,
	}
	decodedChunk, err := UnmarshalChunkEntry(MarshalChunkEntry(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decodedChunk)

	concept := &core.ConceptEntry{
		Id:         core.IDForName("consensus"),
		Name:       "consensus",
		Kind:       core.KindThematic,
		Sources:    []string{"docs/a.pdf"},
		Weight:     1,
		Enrichment: core.EnrichmentCorpus,
		InsertedAt: now,
		UpdatedAt:  now,
	}
	decodedConcept, err := UnmarshalConceptEntry(MarshalConceptEntry(concept))
	require.NoError(t, err)
	assert.Equal(t, concept, decodedConcept)
}

func TestUnmarshalCorruptData(t *testing.T) {
	_, err := UnmarshalCatalogEntry([]byte{0xff})
	assert.Error(t, err)

	_, err = UnmarshalConceptEntry(nil)
	assert.Error(t, err)
}
