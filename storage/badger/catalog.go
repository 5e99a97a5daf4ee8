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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend *Backend
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	return &CatalogRepository{
		backend: backend,
	}, nil
}

// Close releases resources. CatalogRepository has no resources to release.
func (r *CatalogRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CatalogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// indexedConceptIDs returns the union of concept and category IDs an entry
// carries, deduplicated. Both kinds share the concept index.
func indexedConceptIDs(entry *core.CatalogEntry) []core.ID {
	seen := make(map[core.ID]bool, len(entry.ConceptIds)+len(entry.CategoryIds))
	ids := make([]core.ID, 0, len(entry.ConceptIds)+len(entry.CategoryIds))
	for _, id := range entry.ConceptIds {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range entry.CategoryIds {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// UpsertCatalogEntry inserts or replaces the catalog entry for entry.Source.
func (r *CatalogRepository) UpsertCatalogEntry(ctx context.Context, entry *core.CatalogEntry) (*core.CatalogEntry, error) {
	if err := core.ValidateCatalogEntry(entry); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCatalogKey(entry.Source)

		old, err := readCatalogEntry(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		if old != nil {
			entry.InsertedAt = old.InsertedAt
		} else {
			entry.InsertedAt = now
		}
		entry.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalCatalogEntry(entry)); err != nil {
			return err
		}

		// Refresh the concept index: drop keys for concepts the entry no
		// longer carries, add the current set.
		current := make(map[core.ID]bool)
		for _, id := range indexedConceptIDs(entry) {
			current[id] = true
			if err := tx.Set(makeCatalogConceptKey(id, entry.Source), nil); err != nil {
				return err
			}
		}
		if old != nil {
			for _, id := range indexedConceptIDs(old) {
				if !current[id] {
					if err := tx.Delete(makeCatalogConceptKey(id, entry.Source)); err != nil {
						return err
					}
				}
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetCatalogEntry retrieves the catalog entry for a source path.
func (r *CatalogRepository) GetCatalogEntry(ctx context.Context, source string) (*core.CatalogEntry, error) {
	var result *core.CatalogEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := readCatalogEntry(tx, makeCatalogKey(source))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		result = entry
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListCatalogEntries returns all catalog entries ordered by source.
func (r *CatalogRepository) ListCatalogEntries(ctx context.Context) ([]*core.CatalogEntry, error) {
	var results []*core.CatalogEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(catalogPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.CatalogEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalCatalogEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindCatalogByConcept returns the sources of documents tagged with the concept.
func (r *CatalogRepository) FindCatalogByConcept(ctx context.Context, conceptID core.ID) ([]string, error) {
	var sources []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialCatalogConceptKey(conceptID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if source := sourceFromCatalogConceptKey(iter.Item().Key()); source != "" {
				sources = append(sources, source)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return sources, nil
}

// DeleteCatalogEntry removes a catalog entry and its index keys.
func (r *CatalogRepository) DeleteCatalogEntry(ctx context.Context, source string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCatalogKey(source)

		entry, err := readCatalogEntry(tx, key)
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}

		for _, id := range indexedConceptIDs(entry) {
			if err := tx.Delete(makeCatalogConceptKey(id, source)); err != nil {
				return err
			}
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readCatalogEntry reads a catalog entry within a transaction.
// Returns nil, nil if the key doesn't exist.
func readCatalogEntry(tx *badger.Txn, key []byte) (*core.CatalogEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.CatalogEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalCatalogEntry(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
