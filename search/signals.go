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
	"math"
	"path/filepath"
	"strings"

	"github.com/poiesic/corpora/core"
)

// BM25 parameters, standard Okapi values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// bm25Stats holds corpus statistics computed over one candidate set.
// Lexical scores are relative to the candidates being ranked, not to the
// whole store.
type bm25Stats struct {
	docCount  int
	avgLength float64
	docFreq   map[string]int
}

func newBM25Stats(docs [][]string) *bm25Stats {
	stats := &bm25Stats{
		docCount: len(docs),
		docFreq:  make(map[string]int),
	}
	if len(docs) == 0 {
		return stats
	}

	total := 0
	for _, tokens := range docs {
		total += len(tokens)
		for term := range tokenSet(tokens) {
			stats.docFreq[term]++
		}
	}
	stats.avgLength = float64(total) / float64(len(docs))
	return stats
}

// score computes the Okapi BM25 score of one candidate document for the
// query terms.
func (s *bm25Stats) score(queryTokens, docTokens []string) float64 {
	if s.docCount == 0 || len(docTokens) == 0 || s.avgLength == 0 {
		return 0
	}

	freq := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		freq[t]++
	}

	docLen := float64(len(docTokens))
	var score float64
	for _, term := range queryTokens {
		tf := float64(freq[term])
		if tf == 0 {
			continue
		}
		df := float64(s.docFreq[term])
		idf := math.Log(1 + (float64(s.docCount)-df+0.5)/(df+0.5))
		score += idf * (tf * (bm25K1 + 1)) /
			(tf + bm25K1*(1-bm25B+bm25B*docLen/s.avgLength))
	}
	return score
}

// TitleScore measures how well the query matches a candidate's title or
// filename. An exact match scores 1.0; otherwise the score is the fraction
// of query tokens present in the title or filename.
func TitleScore(queryTokens []string, title, source string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	query := strings.Join(queryTokens, " ")
	normalizedTitle := strings.Join(Tokenize(title), " ")
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	normalizedStem := strings.Join(Tokenize(stem), " ")

	if query != "" && (query == normalizedTitle || query == normalizedStem) {
		return 1.0
	}

	titleTokens := tokenSet(Tokenize(title + " " + stem))
	matched := 0
	for _, t := range queryTokens {
		if titleTokens[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// ConceptOverlap measures the fraction of query concepts present in the
// candidate's concept tags. No query concepts means no signal.
func ConceptOverlap(queryIds, candidateIds []core.ID) float64 {
	if len(queryIds) == 0 || len(candidateIds) == 0 {
		return 0
	}

	have := make(map[core.ID]bool, len(candidateIds))
	for _, id := range candidateIds {
		have[id] = true
	}

	matched := 0
	for _, id := range queryIds {
		if have[id] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryIds))
}

// ThesaurusMatch measures the fraction of expansion terms appearing in the
// candidate text. A multi-word term matches when all of its tokens appear.
func ThesaurusMatch(terms []string, docTokens []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	have := tokenSet(docTokens)
	matched := 0
	for _, term := range terms {
		parts := Tokenize(term)
		if len(parts) == 0 {
			continue
		}
		all := true
		for _, p := range parts {
			if !have[p] {
				all = false
				break
			}
		}
		if all {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
