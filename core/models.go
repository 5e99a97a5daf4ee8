package core

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a deterministic identifier for a concept or category.
// It is the FNV-1a hash of the concept name, so the same name always
// yields the same ID across processes, machines, and rebuilds.
type ID uint32

// ChunkID is a unique identifier for a retrievable text segment.
// It is generated using content-based hashing.
type ChunkID uint64

// ChunkIDFromContent generates a deterministic chunk ID using BLAKE2b hashing.
// Identical content produces identical IDs.
func ChunkIDFromContent(text string) ChunkID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ChunkID(binary.LittleEndian.Uint64(sum))
}

// HashContent returns the lowercase hex BLAKE2b-256 digest of text.
// It keys the stage cache and chunk content hashes.
func HashContent(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeName canonicalizes a concept name for deduplication:
// lowercased with runs of whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// MergeNameSets unions two name sets, returning a sorted slice without
// duplicates. Inputs are not modified.
func MergeNameSets(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	sort.Strings(merged)
	return merged
}

// ConceptKind classifies a concept entry.
type ConceptKind int

const (
	// KindThematic represents a primary thematic concept.
	KindThematic ConceptKind = iota + 1
	// KindTerminology represents a technical term.
	KindTerminology
	// KindCategory represents a document category.
	KindCategory
)

// Enrichment identifies where a concept's related-term graph came from.
type Enrichment int

const (
	// EnrichmentCorpus means related terms were observed in the corpus only.
	EnrichmentCorpus Enrichment = iota + 1
	// EnrichmentThesaurus means related terms came from the thesaurus only.
	EnrichmentThesaurus
	// EnrichmentHybrid means both sources contributed.
	EnrichmentHybrid
)

// CatalogEntry is the document-level metadata record, one per source document.
// ConceptIds[i] is always IDForName(ConceptNames[i]); the two slices have
// equal length and matching order.
type CatalogEntry struct {
	Source       string // unique path, primary key
	Title        string
	Summary      string
	ConceptNames []string
	ConceptIds   []ID
	CategoryIds  []ID
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// ChunkEntry is one retrievable text segment belonging to a document.
// Source names an existing CatalogEntry; this is checked at write time,
// not enforced by the store.
type ChunkEntry struct {
	Id             ChunkID
	Source         string
	Text           string
	ContentHash    string
	Vector         []float32
	ConceptIds     []ID
	ConceptDensity float32
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// ConceptEntry is one globally deduplicated concept or category.
// Id is always IDForName(Name). Sources lists the documents containing the
// concept; it is maintained at write time and can drift from the true
// referencing set, which the repair pass reconciles. Weight is |Sources|.
type ConceptEntry struct {
	Id            ID
	Name          string
	Kind          ConceptKind
	Sources       []string // sorted unique
	RelatedNames  []string // sorted unique
	Synonyms      []string
	BroaderTerms  []string
	NarrowerTerms []string
	Summary       string
	Embedding     []float32
	Weight        int
	Enrichment    Enrichment
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// ChunkMatch represents a chunk match from vector similarity search.
type ChunkMatch struct {
	Chunk *ChunkEntry
	Score float32
}
