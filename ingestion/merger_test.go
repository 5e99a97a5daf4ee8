package ingestion

import (
	"testing"

	"github.com/poiesic/corpora/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceFixture(index int, concepts []string, summary string) *SliceExtraction {
	return &SliceExtraction{
		Index: index,
		Extraction: &ai.DocumentExtraction{
			PrimaryConcepts: concepts,
			Summary:         summary,
		},
	}
}

func TestMergeSlices_UnionsNameSets(t *testing.T) {
	a := sliceFixture(0, []string{"consensus", "raft"}, "First part.")
	a.Extraction.TechnicalTerms = []string{"log replication"}
	a.Extraction.Categories = []string{"distributed systems"}
	b := sliceFixture(1, []string{"consensus", "paxos"}, "Second part.")
	b.Extraction.Categories = []string{"Distributed  Systems"}

	result := MergeSlices([]*SliceExtraction{a, b})

	assert.Equal(t, []string{"consensus", "paxos", "raft"}, result.PrimaryConcepts)
	assert.Equal(t, []string{"log replication"}, result.TechnicalTerms)
	// Case and whitespace normalize before dedup.
	assert.Equal(t, []string{"distributed systems"}, result.Categories)
	assert.Equal(t, "First part.\n\nSecond part.", result.Summary)
	assert.False(t, result.Incomplete)
}

func TestMergeSlices_SummariesFollowSliceOrder(t *testing.T) {
	// Input order scrambled; output follows index order.
	result := MergeSlices([]*SliceExtraction{
		sliceFixture(2, nil, "Third."),
		sliceFixture(0, nil, "First."),
		sliceFixture(1, nil, "Second."),
	})

	assert.Equal(t, "First.\n\nSecond.\n\nThird.", result.Summary)
}

func TestMergeSlices_RelatedUnionPerKey(t *testing.T) {
	a := sliceFixture(0, []string{"consensus"}, "")
	a.Extraction.Related = map[string][]string{"consensus": {"leader election"}}
	b := sliceFixture(1, []string{"consensus"}, "")
	b.Extraction.Related = map[string][]string{"consensus": {"log replication", "leader election"}}

	result := MergeSlices([]*SliceExtraction{a, b})

	assert.Equal(t, []string{"leader election", "log replication"}, result.Related["consensus"])
}

func TestMergeSlices_FailedSliceMarksIncomplete(t *testing.T) {
	result := MergeSlices([]*SliceExtraction{
		sliceFixture(0, []string{"consensus"}, "First."),
		{Index: 1, Extraction: nil},
		sliceFixture(2, []string{"raft"}, "Third."),
	})

	assert.True(t, result.Incomplete)
	assert.Equal(t, []int{1}, result.FailedSlices)
	// Surviving slices still merge.
	assert.Equal(t, []string{"consensus", "raft"}, result.PrimaryConcepts)
	assert.Equal(t, "First.\n\nThird.", result.Summary)
}

func TestMergeSlices_Idempotent(t *testing.T) {
	a := sliceFixture(0, []string{"consensus", "raft"}, "Only part.")
	a.Extraction.Related = map[string][]string{"consensus": {"leader election"}}

	once := MergeSlices([]*SliceExtraction{a})
	twice := MergeSlices([]*SliceExtraction{a, a})

	assert.Equal(t, once.PrimaryConcepts, twice.PrimaryConcepts)
	assert.Equal(t, once.Related, twice.Related)
	assert.Equal(t, once.Summary, twice.Summary)
}

func TestMergeSlices_CommutativeOnNames(t *testing.T) {
	a := sliceFixture(0, []string{"raft"}, "")
	b := sliceFixture(1, []string{"paxos"}, "")

	ab := MergeSlices([]*SliceExtraction{a, b})
	ba := MergeSlices([]*SliceExtraction{b, a})

	assert.Equal(t, ab.PrimaryConcepts, ba.PrimaryConcepts)
}

func TestMergeSlices_Empty(t *testing.T) {
	result := MergeSlices(nil)

	require.NotNil(t, result)
	assert.Empty(t, result.PrimaryConcepts)
	assert.Empty(t, result.Summary)
	assert.False(t, result.Incomplete)
}

func TestMergeSlices_FirstMetadataWins(t *testing.T) {
	a := sliceFixture(0, nil, "")
	a.Extraction.Metadata = &ai.DocumentMetadata{Title: "In Search of an Understandable Consensus Algorithm"}
	b := sliceFixture(1, nil, "")
	b.Extraction.Metadata = &ai.DocumentMetadata{Title: "Wrong"}

	result := MergeSlices([]*SliceExtraction{b, a})
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "In Search of an Understandable Consensus Algorithm", result.Metadata.Title)
}
