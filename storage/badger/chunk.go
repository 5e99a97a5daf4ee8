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
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertChunkEntries inserts or replaces chunks as one batch. The whole batch
// is validated and its sources resolved against the catalog before any write,
// so a rejection leaves the prior table state intact.
func (r *ChunkRepository) UpsertChunkEntries(ctx context.Context, chunks ...*core.ChunkEntry) ([]*core.ChunkEntry, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunkEntry(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Referential check: every distinct source must have a catalog entry.
		checked := make(map[string]bool)
		for _, chunk := range chunks {
			if checked[chunk.Source] {
				continue
			}
			entry, err := readCatalogEntry(tx, makeCatalogKey(chunk.Source))
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w: %q", storage.ErrUnknownSource, chunk.Source)
			}
			checked[chunk.Source] = true
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, chunk := range chunks {
			if chunk.ContentHash == "" {
				chunk.ContentHash = core.HashContent(chunk.Text)
			}
			if chunk.Id == 0 {
				chunk.Id = core.ChunkIDFromContent(chunk.Source + "\x00" + chunk.ContentHash)
			}

			key := makeChunkKey(chunk.Id)
			old, err := readChunkEntry(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				chunk.InsertedAt = old.InsertedAt
			} else {
				chunk.InsertedAt = now
			}
			chunk.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalChunkEntry(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeChunkSourceKey(chunk.Source, chunk.Id), nil); err != nil {
				return err
			}

			current := make(map[core.ID]bool, len(chunk.ConceptIds))
			for _, id := range chunk.ConceptIds {
				current[id] = true
				if err := tx.Set(makeChunkConceptKey(id, chunk.Id), nil); err != nil {
					return err
				}
			}
			if old != nil {
				for _, id := range old.ConceptIds {
					if !current[id] {
						if err := tx.Delete(makeChunkConceptKey(id, chunk.Id)); err != nil {
							return err
						}
					}
				}
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ChunkID) (*core.ChunkEntry, error) {
	var result *core.ChunkEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunk, err := readChunkEntry(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}
		result = chunk
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetChunksBySource returns all chunks belonging to a document.
func (r *ChunkRepository) GetChunksBySource(ctx context.Context, source string) ([]*core.ChunkEntry, error) {
	var results []*core.ChunkEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkSourceKey(source)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := chunkIDFromConceptKey(iter.Item().Key())
			chunk, err := readChunkEntry(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindChunksByConcept returns IDs of chunks tagged with a concept.
func (r *ChunkRepository) FindChunksByConcept(ctx context.Context, conceptID core.ID) ([]core.ChunkID, error) {
	var ids []core.ChunkID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkConceptKey(conceptID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, chunkIDFromConceptKey(iter.Item().Key()))
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindSimilarChunks finds chunks similar to the given vector.
// Similarity is the dot product, which equals cosine similarity for
// normalized vectors.
func (r *ChunkRepository) FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error) {
	var results []*core.ChunkMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ChunkEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunkEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			similarity := dotProduct(vector, chunk.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.ChunkMatch{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListChunks returns all chunks.
func (r *ChunkRepository) ListChunks(ctx context.Context) ([]*core.ChunkEntry, error) {
	var results []*core.ChunkEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ChunkEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunkEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteChunksBySource removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteChunksBySource(ctx context.Context, source string) (int, error) {
	removed := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect IDs first; deleting while iterating the same prefix is
		// not safe.
		var ids []core.ChunkID
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkSourceKey(source)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, chunkIDFromConceptKey(iter.Item().Key()))
		}
		iter.Close()

		for _, id := range ids {
			key := makeChunkKey(id)
			chunk, err := readChunkEntry(tx, key)
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			for _, conceptID := range chunk.ConceptIds {
				if err := tx.Delete(makeChunkConceptKey(conceptID, id)); err != nil {
					return err
				}
			}
			if err := tx.Delete(makeChunkSourceKey(source, id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return removed, nil
}

// readChunkEntry reads a chunk within a transaction.
// Returns nil, nil if the key doesn't exist.
func readChunkEntry(tx *badger.Txn, key []byte) (*core.ChunkEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.ChunkEntry
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunkEntry(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chunk, nil
}
