package search

import (
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeights_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultWeights().Validate())
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		w := Weights{Vector: -0.1, Lexical: 0.5, Title: 0.2, Concept: 0.2, Thesaurus: 0.2}
		assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
	})

	t.Run("sum must be one", func(t *testing.T) {
		w := Weights{Vector: 0.5, Lexical: 0.5, Title: 0.5}
		assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
	})

	t.Run("custom weights summing to one", func(t *testing.T) {
		w := Weights{Vector: 0.5, Lexical: 0.5}
		assert.NoError(t, w.Validate())
	})
}

func TestWeights_Fuse(t *testing.T) {
	// 0.25·0.8 + 0.25·1.2 + 0.20·10.0 + 0.20·2.0 + 0.10·0.5 = 2.95
	score := DefaultWeights().Fuse(Signals{
		Vector:    0.8,
		Lexical:   1.2,
		Title:     10.0,
		Concept:   2.0,
		Thesaurus: 0.5,
	})
	assert.InDelta(t, 2.95, score, 1e-12)
}

func TestNewRanker(t *testing.T) {
	_, err := NewRanker(Weights{Vector: 2.0})
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = NewRanker(DefaultWeights())
	assert.NoError(t, err)
}

func TestRanker_Rank(t *testing.T) {
	ranker, err := NewRanker(DefaultWeights())
	require.NoError(t, err)

	consensus := core.IDForName("consensus")
	query := Query{
		Text:           "raft consensus",
		Embedding:      []float32{1, 0, 0},
		ConceptIds:     []core.ID{consensus},
		ExpansionTerms: []string{"agreement"},
	}

	relevant := Candidate{
		Key:        "relevant",
		Title:      "Raft Consensus",
		Source:     "docs/raft.pdf",
		Text:       "raft reaches consensus by agreement between servers",
		Vector:     []float32{1, 0, 0},
		ConceptIds: []core.ID{consensus},
	}
	unrelated := Candidate{
		Key:    "unrelated",
		Title:  "Pasta Recipes",
		Source: "docs/pasta.pdf",
		Text:   "boil water and add salt before the pasta",
		Vector: []float32{0, 1, 0},
	}

	t.Run("orders by hybrid score", func(t *testing.T) {
		results := ranker.Rank(query, []Candidate{unrelated, relevant}, 0)
		require.Len(t, results, 2)
		assert.Equal(t, "relevant", results[0].Candidate.Key)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("reports component signals", func(t *testing.T) {
		results := ranker.Rank(query, []Candidate{relevant}, 0)
		require.Len(t, results, 1)
		assert.InDelta(t, 1.0, results[0].Signals.Vector, 1e-6)
		assert.Positive(t, results[0].Signals.Lexical)
		assert.InDelta(t, 1.0, results[0].Signals.Concept, 1e-9)
		assert.InDelta(t, 1.0, results[0].Signals.Thesaurus, 1e-9)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		a := Candidate{Key: "a", Text: "identical text", Vector: []float32{1, 0, 0}}
		b := Candidate{Key: "b", Text: "identical text", Vector: []float32{1, 0, 0}}
		results := ranker.Rank(query, []Candidate{a, b}, 0)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Candidate.Key)
		assert.Equal(t, "b", results[1].Candidate.Key)
	})

	t.Run("truncates to limit", func(t *testing.T) {
		results := ranker.Rank(query, []Candidate{relevant, unrelated}, 1)
		require.Len(t, results, 1)
		assert.Equal(t, "relevant", results[0].Candidate.Key)
	})

	t.Run("repeated calls return the same order", func(t *testing.T) {
		candidates := []Candidate{unrelated, relevant}
		first := ranker.Rank(query, candidates, 0)
		second := ranker.Rank(query, candidates, 0)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Candidate.Key, second[i].Candidate.Key)
			assert.Equal(t, first[i].Score, second[i].Score)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Nil(t, ranker.Rank(query, nil, 5))
	})
}
