package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogEntryMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	entry := CatalogEntry{
		Source:       "docs/papers/raft.pdf",
		Title:        "In Search of an Understandable Consensus Algorithm",
		Summary:      "Raft consensus explained.",
		ConceptNames: []string{"consensus", "replicated log"},
		ConceptIds:   []ID{IDForName("consensus"), IDForName("replicated log")},
		CategoryIds:  []ID{IDForName("distributed systems")},
		InsertedAt:   now,
		UpdatedAt:    now,
	}

	bs := make([]byte, CatalogEntryMUS.Size(entry))
	n := CatalogEntryMUS.Marshal(entry, bs)
	require.Equal(t, len(bs), n)

	decoded, m, err := CatalogEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, entry, decoded)
}

func TestChunkEntryMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := ChunkEntry{
		Id:             ChunkIDFromContent("docs/papers/raft.pdf#0"),
		Source:         "docs/papers/raft.pdf",
		Text:           "Raft is a consensus algorithm for managing a replicated log.",
		ContentHash:    HashContent("Raft is a consensus algorithm for managing a replicated log."),
		Vector:         []float32{0.1, -0.5, 0.25},
		ConceptIds:     []ID{IDForName("consensus")},
		ConceptDensity: 0.033,
		InsertedAt:     now,
		UpdatedAt:      now,
	}

	bs := make([]byte, ChunkEntryMUS.Size(chunk))
	n := ChunkEntryMUS.Marshal(chunk, bs)
	require.Equal(t, len(bs), n)

	decoded, m, err := ChunkEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, chunk, decoded)
}

func TestConceptEntryMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	concept := ConceptEntry{
		Id:            IDForName("consensus"),
		Name:          "consensus",
		Kind:          KindThematic,
		Sources:       []string{"docs/papers/paxos.pdf", "docs/papers/raft.pdf"},
		RelatedNames:  []string{"leader election", "replicated log"},
		Synonyms:      []string{"agreement"},
		BroaderTerms:  []string{"fault tolerance"},
		NarrowerTerms: []string{"quorum"},
		Summary:       "Agreement among distributed processes.",
		Embedding:     []float32{0.9, 0.1},
		Weight:        2,
		Enrichment:    EnrichmentHybrid,
		InsertedAt:    now,
		UpdatedAt:     now,
	}

	bs := make([]byte, ConceptEntryMUS.Size(concept))
	n := ConceptEntryMUS.Marshal(concept, bs)
	require.Equal(t, len(bs), n)

	decoded, m, err := ConceptEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, concept, decoded)
}

func TestConceptEntryMUS_EmptySets(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	concept := ConceptEntry{
		Id:         IDForName("orphan"),
		Name:       "orphan",
		Kind:       KindCategory,
		Enrichment: EnrichmentCorpus,
		InsertedAt: now,
		UpdatedAt:  now,
	}

	bs := make([]byte, ConceptEntryMUS.Size(concept))
	ConceptEntryMUS.Marshal(concept, bs)

	decoded, _, err := ConceptEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, concept, decoded)
}

func TestMUS_TruncatedData(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	entry := CatalogEntry{Source: "a", Title: "b", InsertedAt: now, UpdatedAt: now}

	bs := make([]byte, CatalogEntryMUS.Size(entry))
	CatalogEntryMUS.Marshal(entry, bs)

	_, _, err := CatalogEntryMUS.Unmarshal(bs[:2])
	assert.Error(t, err)
}
