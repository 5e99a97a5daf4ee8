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
	"github.com/poiesic/corpora/core"
)

// MarshalID serializes a concept ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes a concept ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalChunkID serializes a chunk ID to bytes.
func MarshalChunkID(id core.ChunkID) []byte {
	buf := make([]byte, core.ChunkIDMUS.Size(id))
	core.ChunkIDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalChunkID deserializes a chunk ID from bytes.
func UnmarshalChunkID(data []byte) (core.ChunkID, error) {
	id, _, err := core.ChunkIDMUS.Unmarshal(data)
	return id, err
}

// MarshalCatalogEntry serializes a CatalogEntry to bytes.
func MarshalCatalogEntry(entry *core.CatalogEntry) []byte {
	buf := make([]byte, core.CatalogEntryMUS.Size(*entry))
	core.CatalogEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalCatalogEntry deserializes a CatalogEntry from bytes.
func UnmarshalCatalogEntry(data []byte) (*core.CatalogEntry, error) {
	entry, _, err := core.CatalogEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalChunkEntry serializes a ChunkEntry to bytes.
func MarshalChunkEntry(chunk *core.ChunkEntry) []byte {
	buf := make([]byte, core.ChunkEntryMUS.Size(*chunk))
	core.ChunkEntryMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunkEntry deserializes a ChunkEntry from bytes.
func UnmarshalChunkEntry(data []byte) (*core.ChunkEntry, error) {
	chunk, _, err := core.ChunkEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalConceptEntry serializes a ConceptEntry to bytes.
func MarshalConceptEntry(concept *core.ConceptEntry) []byte {
	buf := make([]byte, core.ConceptEntryMUS.Size(*concept))
	core.ConceptEntryMUS.Marshal(*concept, buf)
	return buf
}

// UnmarshalConceptEntry deserializes a ConceptEntry from bytes.
func UnmarshalConceptEntry(data []byte) (*core.ConceptEntry, error) {
	concept, _, err := core.ConceptEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &concept, nil
}
