package storage

import (
	"context"

	"github.com/poiesic/corpora/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CatalogRepository provides operations for the document-level catalog table.
type CatalogRepository interface {
	Repository

	// UpsertCatalogEntry inserts or replaces the catalog entry for
	// entry.Source. Identifier columns must already be assigned via
	// core.IDForName; the entry is validated before persistence.
	// Sets InsertedAt on first write and UpdatedAt on every write.
	UpsertCatalogEntry(ctx context.Context, entry *core.CatalogEntry) (*core.CatalogEntry, error)

	// GetCatalogEntry retrieves the catalog entry for a source path.
	// Returns ErrNotFound if no entry exists.
	GetCatalogEntry(ctx context.Context, source string) (*core.CatalogEntry, error)

	// ListCatalogEntries returns all catalog entries ordered by source.
	ListCatalogEntries(ctx context.Context) ([]*core.CatalogEntry, error)

	// FindCatalogByConcept returns the sources of documents tagged with the
	// concept, using the concept index rather than a full scan.
	FindCatalogByConcept(ctx context.Context, conceptID core.ID) ([]string, error)

	// DeleteCatalogEntry removes a catalog entry and its index keys.
	// Returns ErrNotFound if the entry doesn't exist. Chunks and concepts
	// referencing the source are not touched; the repair pass detects them.
	DeleteCatalogEntry(ctx context.Context, source string) error
}

// ChunkRepository provides operations for retrievable text segments.
type ChunkRepository interface {
	Repository

	// UpsertChunkEntries inserts or replaces chunks as one batch. Chunks with
	// Id=0 get a content-derived ID. Every chunk's Source must name an
	// existing catalog entry; the whole batch is rejected with
	// ErrUnknownSource otherwise, leaving prior table state intact.
	UpsertChunkEntries(ctx context.Context, chunks ...*core.ChunkEntry) ([]*core.ChunkEntry, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ChunkID) (*core.ChunkEntry, error)

	// GetChunksBySource returns all chunks belonging to a document.
	GetChunksBySource(ctx context.Context, source string) ([]*core.ChunkEntry, error)

	// FindChunksByConcept returns IDs of chunks tagged with a concept.
	FindChunksByConcept(ctx context.Context, conceptID core.ID) ([]core.ChunkID, error)

	// FindSimilarChunks finds chunks whose embedding has cosine similarity
	// >= minSimilarity with the given vector, up to limit results, highest
	// first. Vectors are assumed normalized.
	FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error)

	// ListChunks returns all chunks. Intended for maintenance passes
	// (reembedding, repair), not for query paths.
	ListChunks(ctx context.Context) ([]*core.ChunkEntry, error)

	// DeleteChunksBySource removes all chunks belonging to a document.
	// Returns the number of chunks removed.
	DeleteChunksBySource(ctx context.Context, source string) (int, error)
}

// ConceptRepository provides operations for the deduplicated concept table.
type ConceptRepository interface {
	Repository

	// UpsertConceptEntries inserts or merges concepts as one batch. Concepts
	// with Id=0 get core.IDForName(Name). When a concept already exists,
	// Sources, RelatedNames and the thesaurus sets are merged as set unions,
	// Weight is recomputed as |Sources|, a non-empty incoming Summary or
	// Embedding replaces the stored one, and Enrichment is widened to
	// hybrid when corpus and thesaurus contributions meet. Name and Kind
	// are first-writer-wins; a mismatch on either is logged as a
	// data-quality warning.
	UpsertConceptEntries(ctx context.Context, concepts ...*core.ConceptEntry) ([]*core.ConceptEntry, error)

	// ReplaceConceptEntry overwrites a stored concept without the set-union
	// merge of UpsertConceptEntries. Used by the repair pass, which must be
	// able to shrink Sources. Returns ErrNotFound if the concept doesn't
	// exist.
	ReplaceConceptEntry(ctx context.Context, concept *core.ConceptEntry) (*core.ConceptEntry, error)

	// GetConcept retrieves a single concept by ID.
	// Returns ErrNotFound if the concept doesn't exist.
	GetConcept(ctx context.Context, id core.ID) (*core.ConceptEntry, error)

	// GetConcepts retrieves multiple concepts by their IDs.
	// Returns only the concepts that exist (no error for missing concepts).
	GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.ConceptEntry, error)

	// GetConceptByName finds a concept by exact name.
	// Returns ErrNotFound if no matching concept exists.
	GetConceptByName(ctx context.Context, name string) (*core.ConceptEntry, error)

	// ListConcepts returns all concepts ordered by ID.
	ListConcepts(ctx context.Context) ([]*core.ConceptEntry, error)

	// DeleteConcepts removes concepts by their IDs.
	// Returns ErrNotFound if any concept doesn't exist.
	DeleteConcepts(ctx context.Context, ids ...core.ID) error
}
