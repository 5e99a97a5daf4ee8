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


package storage

import (
	"context"
	"log/slog"

	"github.com/poiesic/corpora/core"
)

// RepairReport summarizes what a reconciliation pass found and fixed.
type RepairReport struct {
	// CatalogDanglingRefs counts concept IDs referenced by catalog entries
	// that are absent from the concepts table.
	CatalogDanglingRefs int
	// ChunkDanglingRefs counts concept IDs referenced by chunks that are
	// absent from the concepts table.
	ChunkDanglingRefs int
	// StaleConceptSources counts concept source references naming catalog
	// entries that no longer exist.
	StaleConceptSources int
	// OrphanedConcepts counts concepts whose source set became empty after
	// pruning. With Fix enabled they are deleted: everything about them is
	// re-derivable from a future ingest of a document that mentions them.
	OrphanedConcepts int
	// OrphanedChunks counts chunks whose source has no catalog entry.
	// These are reported, never auto-deleted: the text may still be the
	// only copy of an extraction the catalog write lost.
	OrphanedChunks int
	// Fixed reports whether repairs were applied or only detected.
	Fixed bool
}

// Reconciler detects and repairs drift between the denormalized identifier
// arrays of the three tables. Referential integrity between entities and
// concepts is maintained by convention, not constraints, so a narrow window
// during multi-step writes (or a crash inside one) can leave dangling
// references behind.
type Reconciler struct {
	catalog  CatalogRepository
	chunks   ChunkRepository
	concepts ConceptRepository
	logger   *slog.Logger
}

// NewReconciler creates a reconciler over the three repositories.
func NewReconciler(catalog CatalogRepository, chunks ChunkRepository, concepts ConceptRepository, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		catalog:  catalog,
		chunks:   chunks,
		concepts: concepts,
		logger:   logger.With("component", "reconciler"),
	}
}

// Reconcile scans all three tables. With fix=false it only reports; with
// fix=true it prunes dangling concept references from catalog and chunk
// arrays, prunes stale sources from concepts (recomputing weights), and
// deletes concepts left with no live source.
func (r *Reconciler) Reconcile(ctx context.Context, fix bool) (*RepairReport, error) {
	report := &RepairReport{Fixed: fix}

	concepts, err := r.concepts.ListConcepts(ctx)
	if err != nil {
		return nil, err
	}
	knownConcepts := make(map[core.ID]bool, len(concepts))
	for _, concept := range concepts {
		knownConcepts[concept.Id] = true
	}

	entries, err := r.catalog.ListCatalogEntries(ctx)
	if err != nil {
		return nil, err
	}
	liveSources := make(map[string]bool, len(entries))
	for _, entry := range entries {
		liveSources[entry.Source] = true
	}

	// Pass 1: catalog arrays referencing missing concepts.
	for _, entry := range entries {
		names, conceptIds, dropped := pruneDanglingNamed(entry.ConceptNames, entry.ConceptIds, knownConcepts)
		categoryIds, droppedCats := pruneDangling(entry.CategoryIds, knownConcepts)
		if dropped+droppedCats == 0 {
			continue
		}
		report.CatalogDanglingRefs += dropped + droppedCats
		r.logger.Warn("catalog entry references missing concepts",
			"source", entry.Source, "dangling", dropped+droppedCats)
		if fix {
			entry.ConceptNames = names
			entry.ConceptIds = conceptIds
			entry.CategoryIds = categoryIds
			if _, err := r.catalog.UpsertCatalogEntry(ctx, entry); err != nil {
				return nil, err
			}
		}
	}

	// Pass 2: chunk arrays referencing missing concepts; orphaned chunks.
	chunks, err := r.chunks.ListChunks(ctx)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		if !liveSources[chunk.Source] {
			report.OrphanedChunks++
			r.logger.Warn("chunk has no catalog entry", "chunk", uint64(chunk.Id), "source", chunk.Source)
			continue
		}
		conceptIds, dropped := pruneDangling(chunk.ConceptIds, knownConcepts)
		if dropped == 0 {
			continue
		}
		report.ChunkDanglingRefs += dropped
		if fix {
			chunk.ConceptIds = conceptIds
			if _, err := r.chunks.UpsertChunkEntries(ctx, chunk); err != nil {
				return nil, err
			}
		}
	}

	// Pass 3: concept sources naming dead catalog entries.
	for _, concept := range concepts {
		live := make([]string, 0, len(concept.Sources))
		stale := 0
		for _, source := range concept.Sources {
			if liveSources[source] {
				live = append(live, source)
			} else {
				stale++
			}
		}
		if stale == 0 {
			continue
		}
		report.StaleConceptSources += stale

		if len(live) == 0 {
			report.OrphanedConcepts++
			r.logger.Warn("concept has no live sources", "concept", concept.Name)
			if fix {
				if err := r.concepts.DeleteConcepts(ctx, concept.Id); err != nil {
					return nil, err
				}
			}
			continue
		}
		if fix {
			concept.Sources = live
			concept.Weight = len(live)
			if _, err := r.concepts.ReplaceConceptEntry(ctx, concept); err != nil {
				return nil, err
			}
		}
	}

	return report, nil
}

// pruneDangling drops IDs absent from known, returning the kept slice and
// the dropped count.
func pruneDangling(ids []core.ID, known map[core.ID]bool) ([]core.ID, int) {
	kept := make([]core.ID, 0, len(ids))
	dropped := 0
	for _, id := range ids {
		if known[id] {
			kept = append(kept, id)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// pruneDanglingNamed drops name/ID pairs whose ID is absent from known,
// preserving the parallel ordering invariant.
func pruneDanglingNamed(names []string, ids []core.ID, known map[core.ID]bool) ([]string, []core.ID, int) {
	keptNames := make([]string, 0, len(names))
	keptIds := make([]core.ID, 0, len(ids))
	dropped := 0
	for i, id := range ids {
		if known[id] {
			keptIds = append(keptIds, id)
			if i < len(names) {
				keptNames = append(keptNames, names[i])
			}
		} else {
			dropped++
		}
	}
	return keptNames, keptIds, dropped
}
