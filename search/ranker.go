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
	"fmt"
	"math"
	"sort"

	"github.com/poiesic/corpora/core"
)

// Weights are the fusion coefficients of the five relevance signals.
// They are configuration, not constants.
type Weights struct {
	Vector    float64
	Lexical   float64
	Title     float64
	Concept   float64
	Thesaurus float64
}

// DefaultWeights returns the standard signal weighting.
func DefaultWeights() Weights {
	return Weights{
		Vector:    0.25,
		Lexical:   0.25,
		Title:     0.20,
		Concept:   0.20,
		Thesaurus: 0.10,
	}
}

// Validate checks that every weight is non-negative and that the weights
// sum to one within a small tolerance.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Vector, w.Lexical, w.Title, w.Concept, w.Thesaurus} {
		if v < 0 {
			return fmt.Errorf("%w: weight %v is negative", ErrInvalidWeights, v)
		}
	}
	sum := w.Vector + w.Lexical + w.Title + w.Concept + w.Thesaurus
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Signals holds the five independently computed relevance signals for one
// candidate.
type Signals struct {
	Vector    float64
	Lexical   float64
	Title     float64
	Concept   float64
	Thesaurus float64
}

// Fuse combines the signals into one hybrid score by weighted sum.
func (w Weights) Fuse(s Signals) float64 {
	return w.Vector*s.Vector +
		w.Lexical*s.Lexical +
		w.Title*s.Title +
		w.Concept*s.Concept +
		w.Thesaurus*s.Thesaurus
}

// Query carries everything derived from the user's query text.
type Query struct {
	Text           string
	Tokens         []string
	Embedding      []float32
	ConceptIds     []core.ID
	ExpansionTerms []string
}

// Candidate is one rankable item, built from either a chunk or a catalog
// entry.
type Candidate struct {
	Key        string
	Title      string
	Source     string
	Text       string
	Vector     []float32
	ConceptIds []core.ID
}

// Result is a ranked candidate with its hybrid score and the signals that
// produced it.
type Result struct {
	Candidate Candidate
	Score     float64
	Signals   Signals
}

// Ranker scores candidates against a query and orders them by hybrid
// score. The same ranker serves chunk-level and document-level search.
type Ranker struct {
	weights Weights
}

// NewRanker creates a ranker with the given weights.
func NewRanker(weights Weights) (*Ranker, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{weights: weights}, nil
}

// Rank scores every candidate, sorts descending by hybrid score and
// truncates to limit. Ties keep input order. Lexical scores are computed
// against corpus statistics of the candidate set itself.
func (r *Ranker) Rank(query Query, candidates []Candidate, limit int) []Result {
	if len(candidates) == 0 {
		return nil
	}

	queryTokens := query.Tokens
	if queryTokens == nil {
		queryTokens = Tokenize(query.Text)
	}

	docTokens := make([][]string, len(candidates))
	for i, c := range candidates {
		docTokens[i] = Tokenize(c.Text)
	}
	stats := newBM25Stats(docTokens)

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		signals := Signals{
			Vector:    CosineSimilarity(query.Embedding, c.Vector),
			Lexical:   stats.score(queryTokens, docTokens[i]),
			Title:     TitleScore(queryTokens, c.Title, c.Source),
			Concept:   ConceptOverlap(query.ConceptIds, c.ConceptIds),
			Thesaurus: ThesaurusMatch(query.ExpansionTerms, docTokens[i]),
		}
		results[i] = Result{
			Candidate: c,
			Score:     r.weights.Fuse(signals),
			Signals:   signals,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
