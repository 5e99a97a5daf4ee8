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


package badger

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// ConceptRepository implements storage.ConceptRepository for BadgerDB.
type ConceptRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ConceptRepository = (*ConceptRepository)(nil)

// NewConceptRepository creates a new ConceptRepository.
func NewConceptRepository(backend *Backend) (*ConceptRepository, error) {
	return &ConceptRepository{
		backend: backend,
		logger:  slog.Default().With("component", "concepts"),
	}, nil
}

// Close releases resources. ConceptRepository has no resources to release.
func (r *ConceptRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ConceptRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// mergeConceptEntry folds an incoming concept into the stored one.
// Sources, RelatedNames and the thesaurus sets are merged as set unions,
// Weight is recomputed as |Sources|, and Enrichment widens to hybrid when
// corpus and thesaurus contributions meet. Name and Kind are
// first-writer-wins: one document's extraction does not relabel a concept
// the rest of the corpus already established.
func mergeConceptEntry(old, incoming *core.ConceptEntry) *core.ConceptEntry {
	merged := *old
	merged.Sources = core.MergeNameSets(old.Sources, incoming.Sources)
	merged.RelatedNames = core.MergeNameSets(old.RelatedNames, incoming.RelatedNames)
	merged.Synonyms = core.MergeNameSets(old.Synonyms, incoming.Synonyms)
	merged.BroaderTerms = core.MergeNameSets(old.BroaderTerms, incoming.BroaderTerms)
	merged.NarrowerTerms = core.MergeNameSets(old.NarrowerTerms, incoming.NarrowerTerms)
	merged.Weight = len(merged.Sources)

	if incoming.Summary != "" {
		merged.Summary = incoming.Summary
	}
	if len(incoming.Embedding) > 0 {
		merged.Embedding = incoming.Embedding
	}
	if incoming.Enrichment != 0 && incoming.Enrichment != merged.Enrichment {
		merged.Enrichment = core.EnrichmentHybrid
	}
	return &merged
}

// UpsertConceptEntries inserts or merges concepts as one batch.
func (r *ConceptRepository) UpsertConceptEntries(ctx context.Context, concepts ...*core.ConceptEntry) ([]*core.ConceptEntry, error) {
	for _, concept := range concepts {
		if err := core.ValidateConceptEntry(concept); err != nil {
			return nil, err
		}
	}

	results := make([]*core.ConceptEntry, 0, len(concepts))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, concept := range concepts {
			if concept.Id == 0 {
				concept.Id = core.IDForName(concept.Name)
			}
			if concept.Enrichment == 0 {
				concept.Enrichment = core.EnrichmentCorpus
			}

			key := makeConceptKey(concept.Id)
			old, err := readConceptEntry(tx, key)
			if err != nil {
				return err
			}

			var final *core.ConceptEntry
			if old != nil {
				if old.Name != concept.Name {
					// Distinct names hashed to one identifier. The stored
					// name stays; the incoming concept folds into it.
					r.logger.Warn("concept identifier collision",
						"id", uint32(concept.Id), "stored", old.Name, "incoming", concept.Name)
				}
				if concept.Kind != 0 && concept.Kind != old.Kind {
					r.logger.Warn("concept kind mismatch",
						"name", old.Name, "stored", old.Kind, "incoming", concept.Kind)
				}
				final = mergeConceptEntry(old, concept)
			} else {
				final = concept
				final.Sources = core.MergeNameSets(final.Sources, nil)
				final.RelatedNames = core.MergeNameSets(final.RelatedNames, nil)
				final.Synonyms = core.MergeNameSets(final.Synonyms, nil)
				final.BroaderTerms = core.MergeNameSets(final.BroaderTerms, nil)
				final.NarrowerTerms = core.MergeNameSets(final.NarrowerTerms, nil)
				final.Weight = len(final.Sources)
				final.InsertedAt = now
			}
			final.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalConceptEntry(final)); err != nil {
				return err
			}
			if err := tx.Set(makeConceptNameKey(final.Name), storage.MarshalID(final.Id)); err != nil {
				return err
			}
			results = append(results, final)
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// ReplaceConceptEntry overwrites a stored concept wholesale. Unlike upsert
// there is no set-union merge, so the repair pass can shrink Sources.
func (r *ConceptRepository) ReplaceConceptEntry(ctx context.Context, concept *core.ConceptEntry) (*core.ConceptEntry, error) {
	if err := core.ValidateConceptEntry(concept); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConceptKey(concept.Id)
		old, err := readConceptEntry(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		concept.InsertedAt = old.InsertedAt
		concept.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		if err := tx.Set(key, storage.MarshalConceptEntry(concept)); err != nil {
			return err
		}
		if old.Name != concept.Name {
			if err := tx.Delete(makeConceptNameKey(old.Name)); err != nil {
				return err
			}
			if err := tx.Set(makeConceptNameKey(concept.Name), storage.MarshalID(concept.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return concept, nil
}

// GetConcept retrieves a single concept by ID.
func (r *ConceptRepository) GetConcept(ctx context.Context, id core.ID) (*core.ConceptEntry, error) {
	var result *core.ConceptEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		concept, err := readConceptEntry(tx, makeConceptKey(id))
		if err != nil {
			return err
		}
		if concept == nil {
			return storage.ErrNotFound
		}
		result = concept
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetConcepts retrieves multiple concepts by their IDs.
// Returns only the concepts that exist.
func (r *ConceptRepository) GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.ConceptEntry, error) {
	results := make([]*core.ConceptEntry, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			concept, err := readConceptEntry(tx, makeConceptKey(id))
			if err != nil {
				return err
			}
			if concept != nil {
				results = append(results, concept)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetConceptByName finds a concept by exact name via the name index.
func (r *ConceptRepository) GetConceptByName(ctx context.Context, name string) (*core.ConceptEntry, error) {
	var result *core.ConceptEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeConceptNameKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		concept, err := readConceptEntry(tx, makeConceptKey(id))
		if err != nil {
			return err
		}
		if concept == nil {
			return storage.ErrNotFound
		}
		result = concept
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListConcepts returns all concepts.
func (r *ConceptRepository) ListConcepts(ctx context.Context) ([]*core.ConceptEntry, error) {
	var results []*core.ConceptEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(conceptPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var concept *core.ConceptEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				concept, err = storage.UnmarshalConceptEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, concept)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteConcepts removes concepts by their IDs.
func (r *ConceptRepository) DeleteConcepts(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeConceptKey(id)

			concept, err := readConceptEntry(tx, key)
			if err != nil {
				return err
			}
			if concept == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeConceptNameKey(concept.Name)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readConceptEntry reads a concept within a transaction.
// Returns nil, nil if the key doesn't exist.
func readConceptEntry(tx *badger.Txn, key []byte) (*core.ConceptEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var concept *core.ConceptEntry
	err = item.Value(func(val []byte) error {
		var err error
		concept, err = storage.UnmarshalConceptEntry(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return concept, nil
}
