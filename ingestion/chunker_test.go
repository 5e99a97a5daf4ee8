package ingestion

import (
	"strings"
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_SmallDocumentOneChunk(t *testing.T) {
	c := NewChunker(NewSplitter(), 512)

	chunks := c.ChunkDocument("docs/raft.pdf", "Raft is a consensus algorithm.", nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, "docs/raft.pdf", chunks[0].Source)
	assert.Equal(t, "Raft is a consensus algorithm.", chunks[0].Text)
}

func TestChunker_EmptyDocument(t *testing.T) {
	c := NewChunker(NewSplitter(), 512)
	assert.Empty(t, c.ChunkDocument("docs/a.pdf", "", nil))
}

func TestChunker_SplitsOnParagraphs(t *testing.T) {
	c := NewChunker(NewSplitter(), 20)

	paragraphs := make([]string, 8)
	for i := range paragraphs {
		paragraphs[i] = "a paragraph with a handful of words in it"
	}
	chunks := c.ChunkDocument("docs/a.pdf", strings.Join(paragraphs, "\n\n"), nil)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Text)
	}
}

func TestChunker_HardSplitsOversizedParagraph(t *testing.T) {
	c := NewChunker(NewSplitter(), 10)

	// One paragraph far above the chunk limit, no paragraph breaks.
	text := strings.TrimSpace(strings.Repeat("word ", 200))
	chunks := c.ChunkDocument("docs/a.pdf", text, nil)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotContains(t, chunk.Text, "\n\n")
	}
}

func TestChunker_TagsMentionedConcepts(t *testing.T) {
	c := NewChunker(NewSplitter(), 512)

	chunks := c.ChunkDocument("docs/raft.pdf",
		"Raft reaches consensus through leader election. Consensus requires a majority.",
		[]string{"consensus", "leader election", "paxos"})
	require.Len(t, chunks, 1)

	assert.Contains(t, chunks[0].ConceptIds, core.IDForName("consensus"))
	assert.Contains(t, chunks[0].ConceptIds, core.IDForName("leader election"))
	assert.NotContains(t, chunks[0].ConceptIds, core.IDForName("paxos"))
	assert.Greater(t, chunks[0].ConceptDensity, float32(0))
}

func TestChunker_DensityCountsRepeatMentions(t *testing.T) {
	c := NewChunker(NewSplitter(), 512)

	once := c.ChunkDocument("docs/a.pdf", "consensus and other words here", []string{"consensus"})
	twice := c.ChunkDocument("docs/a.pdf", "consensus consensus and other words", []string{"consensus"})

	require.Len(t, once, 1)
	require.Len(t, twice, 1)
	assert.Greater(t, twice[0].ConceptDensity, once[0].ConceptDensity)
}
