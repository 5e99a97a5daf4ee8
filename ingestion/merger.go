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


package ingestion

import (
	"sort"
	"strings"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/core"
)

// SliceExtraction is the outcome of extracting one document slice.
type SliceExtraction struct {
	// Index is the slice's position in document order.
	Index int
	// Extraction is the slice's extraction, nil when the slice failed.
	Extraction *ai.DocumentExtraction
}

// ExtractionResult is the document-level extraction after merging slices.
type ExtractionResult struct {
	ai.DocumentExtraction

	// Incomplete is set when one or more slices permanently failed. The
	// merge proceeds over the surviving slices; a partial result is marked,
	// never silently passed off as complete.
	Incomplete bool
	// FailedSlices lists the indexes of slices that produced no extraction.
	FailedSlices []int
}

// MergeSlices folds per-slice extractions into one document extraction.
// Name sets union with normalized dedup, related lists union per concept
// key, and summaries concatenate in slice order. Merging is idempotent and
// commutative on name membership. No slices yields an empty result.
func MergeSlices(slices []*SliceExtraction) *ExtractionResult {
	ordered := make([]*SliceExtraction, len(slices))
	copy(ordered, slices)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	result := &ExtractionResult{}
	var summaries []string

	seen := make(map[int]bool, len(ordered))
	for _, slice := range ordered {
		// An index identifies a slice; feeding the same slice in twice
		// must not double its summary.
		if seen[slice.Index] {
			continue
		}
		seen[slice.Index] = true
		if slice.Extraction == nil {
			result.Incomplete = true
			result.FailedSlices = append(result.FailedSlices, slice.Index)
			continue
		}
		ext := slice.Extraction

		result.PrimaryConcepts = core.MergeNameSets(result.PrimaryConcepts, normalizeAll(ext.PrimaryConcepts))
		result.TechnicalTerms = core.MergeNameSets(result.TechnicalTerms, normalizeAll(ext.TechnicalTerms))
		result.Categories = core.MergeNameSets(result.Categories, normalizeAll(ext.Categories))

		for key, names := range ext.Related {
			key = core.NormalizeName(key)
			if key == "" {
				continue
			}
			if result.Related == nil {
				result.Related = make(map[string][]string)
			}
			result.Related[key] = core.MergeNameSets(result.Related[key], normalizeAll(names))
		}

		if summary := strings.TrimSpace(ext.Summary); summary != "" {
			summaries = append(summaries, summary)
		}

		// First slice carrying metadata wins: front matter lives at the
		// start of a document.
		if result.Metadata == nil && ext.Metadata != nil {
			meta := *ext.Metadata
			result.Metadata = &meta
		}
	}

	result.Summary = strings.Join(summaries, "\n\n")
	return result
}

// normalizeAll normalizes each name, dropping empties.
func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = core.NormalizeName(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
