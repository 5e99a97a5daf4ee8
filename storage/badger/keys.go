package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/corpora/core"
)

// Key prefixes for different data types
const (
	catalogPrefix        = "catrec"
	catalogConceptPrefix = "catcon"
	chunkPrefix          = "chkrec"
	chunkSourcePrefix    = "chksrc"
	chunkConceptPrefix   = "chkcon"
	conceptPrefix        = "conrec"
	conceptNamePrefix    = "conname"
)

// makeCatalogKey generates a key for a catalog entry by source path.
func makeCatalogKey(source string) []byte {
	return []byte(fmt.Sprintf("%s:%s", catalogPrefix, source))
}

// makeCatalogConceptKey generates a composite key for the catalog concept
// index. Format: prefix:conceptID:source
// The concept ID is written in BigEndian order so lexicographic sort groups
// all sources of one concept together.
func makeCatalogConceptKey(conceptID core.ID, source string) []byte {
	prefix := catalogConceptPrefix + ":"
	buf := make([]byte, len(prefix)+4+len(source))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(conceptID))
	offset += 4
	copy(buf[offset:], source)
	return buf
}

// makePartialCatalogConceptKey generates a partial key for scanning all
// sources tagged with one concept.
func makePartialCatalogConceptKey(conceptID core.ID) []byte {
	prefix := catalogConceptPrefix + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(conceptID))
	return buf
}

// sourceFromCatalogConceptKey extracts the source path from an index key.
func sourceFromCatalogConceptKey(key []byte) string {
	prefixLen := len(catalogConceptPrefix) + 1 + 4
	if len(key) <= prefixLen {
		return ""
	}
	return string(key[prefixLen:])
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ChunkID) []byte {
	prefix := chunkPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkSourceKey generates a composite key for the chunk source index.
// Format: prefix:source:chunkID
func makeChunkSourceKey(source string, id core.ChunkID) []byte {
	prefix := chunkSourcePrefix + ":" + source + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialChunkSourceKey generates a partial key for scanning all chunks
// of one document.
func makePartialChunkSourceKey(source string) []byte {
	return []byte(chunkSourcePrefix + ":" + source + ":")
}

// makeChunkConceptKey generates a composite key for the chunk concept index.
// Format: prefix:conceptID:chunkID, both BigEndian.
func makeChunkConceptKey(conceptID core.ID, chunkID core.ChunkID) []byte {
	prefix := chunkConceptPrefix + ":"
	buf := make([]byte, len(prefix)+4+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(conceptID))
	offset += 4
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkConceptKey generates a partial key for scanning all chunks
// tagged with one concept.
func makePartialChunkConceptKey(conceptID core.ID) []byte {
	prefix := chunkConceptPrefix + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(conceptID))
	return buf
}

// chunkIDFromConceptKey extracts the chunk ID from an index key.
func chunkIDFromConceptKey(key []byte) core.ChunkID {
	return core.ChunkID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeConceptKey generates a key for a concept by ID.
func makeConceptKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conceptPrefix, id))
}

// makeConceptNameKey generates a key for concept lookup by name.
func makeConceptNameKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", conceptNamePrefix, name))
}
