package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentExtractor derives the concept structure of a document or document
// slice. Implementations must be thread-safe for concurrent use: slices of
// the same document are extracted in parallel.
type DocumentExtractor interface {
	// ExtractDocument analyzes text and returns its primary concepts,
	// technical terms, category assignments, related-name map, summary and
	// any bibliographic metadata found in the text. Empty text yields an
	// empty extraction, not an error.
	ExtractDocument(ctx context.Context, text string) (*DocumentExtraction, error)
}

// Summarizer writes short prose summaries for category concepts.
type Summarizer interface {
	// SummarizeCategories returns a name→summary map covering exactly the
	// requested names. Callers pass only the names they are missing, so an
	// implementation never re-describes what the store already has.
	SummarizeCategories(ctx context.Context, names []string) (map[string]string, error)
}

// Thesaurus expands a concept name into controlled-vocabulary relations.
// It is an external collaborator boundary: the engine only consumes the
// interface, and tests substitute a mock.
type Thesaurus interface {
	// Expand returns synonyms and broader/narrower terms for a concept name.
	// A name the thesaurus does not know yields an empty expansion.
	Expand(ctx context.Context, name string) (*Expansion, error)
}

// Provider aggregates the model-backed services behind one lifecycle.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// DocumentExtractor returns the document extraction service.
	DocumentExtractor() DocumentExtractor

	// Summarizer returns the category summary service.
	Summarizer() Summarizer

	// Verify checks that the configured services are reachable and the
	// credentials are accepted. Run once before a pipeline touches the
	// store: an auth failure here returns ErrUnauthorized and nothing has
	// been scanned or written yet.
	Verify(ctx context.Context) error

	// Close releases resources held by the provider and its services.
	Close() error
}
