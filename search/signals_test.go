package search

import (
	"testing"

	"github.com/poiesic/corpora/core"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.6, 0.8}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	})

	t.Run("magnitude invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{10, 20, 30}
		assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)
	})

	t.Run("mismatched lengths score zero", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	})

	t.Run("zero vector scores zero", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	})
}

func TestBM25(t *testing.T) {
	docs := [][]string{
		Tokenize("raft consensus algorithm for replicated logs"),
		Tokenize("cooking pasta with tomato sauce"),
		Tokenize("consensus consensus consensus everywhere in this longer document about consensus protocols"),
	}
	stats := newBM25Stats(docs)
	query := Tokenize("consensus algorithm")

	t.Run("matching document outscores unrelated one", func(t *testing.T) {
		assert.Greater(t, stats.score(query, docs[0]), stats.score(query, docs[1]))
	})

	t.Run("unrelated document scores zero", func(t *testing.T) {
		assert.Zero(t, stats.score(query, docs[1]))
	})

	t.Run("term frequency saturates", func(t *testing.T) {
		// Four mentions of one query term do not beat one mention each of
		// both query terms in a short document.
		assert.Greater(t, stats.score(query, docs[0]), stats.score(query, docs[2]))
	})

	t.Run("empty corpus scores zero", func(t *testing.T) {
		empty := newBM25Stats(nil)
		assert.Zero(t, empty.score(query, docs[0]))
	})

	t.Run("empty document scores zero", func(t *testing.T) {
		assert.Zero(t, stats.score(query, nil))
	})
}

func TestTitleScore(t *testing.T) {
	t.Run("exact title match", func(t *testing.T) {
		score := TitleScore(Tokenize("raft paper"), "Raft Paper", "docs/x.pdf")
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("exact filename match", func(t *testing.T) {
		score := TitleScore(Tokenize("raft paper"), "Untitled", "docs/raft-paper.pdf")
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("partial match is fractional", func(t *testing.T) {
		score := TitleScore(Tokenize("raft consensus survey"), "Raft Paper", "docs/x.pdf")
		assert.InDelta(t, 1.0/3.0, score, 1e-9)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Zero(t, TitleScore(Tokenize("cooking"), "Raft Paper", "docs/raft.pdf"))
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Zero(t, TitleScore(nil, "Raft Paper", "docs/raft.pdf"))
	})
}

func TestConceptOverlap(t *testing.T) {
	consensus := core.IDForName("consensus")
	raft := core.IDForName("raft")
	pasta := core.IDForName("pasta")

	t.Run("full overlap", func(t *testing.T) {
		score := ConceptOverlap([]core.ID{consensus, raft}, []core.ID{raft, consensus, pasta})
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("partial overlap", func(t *testing.T) {
		score := ConceptOverlap([]core.ID{consensus, raft}, []core.ID{consensus})
		assert.InDelta(t, 0.5, score, 1e-9)
	})

	t.Run("no overlap", func(t *testing.T) {
		assert.Zero(t, ConceptOverlap([]core.ID{consensus}, []core.ID{pasta}))
	})

	t.Run("no query concepts", func(t *testing.T) {
		assert.Zero(t, ConceptOverlap(nil, []core.ID{pasta}))
	})
}

func TestThesaurusMatch(t *testing.T) {
	docTokens := Tokenize("leader election drives agreement between replicated state machines")

	t.Run("single-word terms", func(t *testing.T) {
		score := ThesaurusMatch([]string{"agreement", "quorum"}, docTokens)
		assert.InDelta(t, 0.5, score, 1e-9)
	})

	t.Run("multi-word term needs all tokens", func(t *testing.T) {
		assert.InDelta(t, 1.0, ThesaurusMatch([]string{"leader election"}, docTokens), 1e-9)
		assert.Zero(t, ThesaurusMatch([]string{"leader rotation"}, docTokens))
	})

	t.Run("no terms", func(t *testing.T) {
		assert.Zero(t, ThesaurusMatch(nil, docTokens))
	})
}

func TestTokenize(t *testing.T) {
	t.Run("lowercases and strips punctuation", func(t *testing.T) {
		assert.Equal(t, []string{"raft", "consensus"}, Tokenize("Raft: Consensus!"))
	})

	t.Run("drops stop words and single characters", func(t *testing.T) {
		assert.Equal(t, []string{"quick", "fox", "hole"}, Tokenize("the quick fox is in a hole"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, Tokenize("  "))
	})
}
