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


package core

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the store value types. Field order is part
// of the on-disk format and must not change between releases. Timestamps are
// encoded as Unix microseconds.
var (
	IDMUS           = idMUS{}
	ChunkIDMUS      = chunkIDMUS{}
	CatalogEntryMUS = catalogEntryMUS{}
	ChunkEntryMUS   = chunkEntryMUS{}
	ConceptEntryMUS = conceptEntryMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint32.Marshal(uint32(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint32.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint32.Size(uint32(id))
}

type chunkIDMUS struct{}

func (chunkIDMUS) Marshal(id ChunkID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (chunkIDMUS) Unmarshal(bs []byte) (ChunkID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ChunkID(v), n, err
}

func (chunkIDMUS) Size(id ChunkID) int {
	return varint.Uint64.Size(uint64(id))
}

// marshalTime encodes a time.Time as Unix microseconds.
func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalStrings(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	for i := 0; i < length; i++ {
		var m int
		v[i], m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeStrings(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func marshalIDs(v []ID, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, id := range v {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return n
}

func unmarshalIDs(bs []byte) (v []ID, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]ID, length)
	for i := 0; i < length; i++ {
		var m int
		v[i], m, err = IDMUS.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeIDs(v []ID) (size int) {
	size = varint.Int.Size(len(v))
	for _, id := range v {
		size += IDMUS.Size(id)
	}
	return size
}

// Float32 components are encoded through their IEEE-754 bit patterns.
func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative length %d", length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var (
			bits uint32
			m    int
		)
		bits, m, err = varint.Uint32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

type catalogEntryMUS struct{}

func (catalogEntryMUS) Marshal(v CatalogEntry, bs []byte) (n int) {
	n = ord.String.Marshal(v.Source, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += marshalStrings(v.ConceptNames, bs[n:])
	n += marshalIDs(v.ConceptIds, bs[n:])
	n += marshalIDs(v.CategoryIds, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (catalogEntryMUS) Unmarshal(bs []byte) (v CatalogEntry, n int, err error) {
	var m int
	if v.Source, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Summary, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.ConceptNames, m, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.ConceptIds, m, err = unmarshalIDs(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.CategoryIds, m, err = unmarshalIDs(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (catalogEntryMUS) Size(v CatalogEntry) int {
	return ord.String.Size(v.Source) +
		ord.String.Size(v.Title) +
		ord.String.Size(v.Summary) +
		sizeStrings(v.ConceptNames) +
		sizeIDs(v.ConceptIds) +
		sizeIDs(v.CategoryIds) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}

type chunkEntryMUS struct{}

func (chunkEntryMUS) Marshal(v ChunkEntry, bs []byte) (n int) {
	n = ChunkIDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Source, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.ContentHash, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += marshalIDs(v.ConceptIds, bs[n:])
	n += varint.Uint32.Marshal(math.Float32bits(v.ConceptDensity), bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (chunkEntryMUS) Unmarshal(bs []byte) (v ChunkEntry, n int, err error) {
	var m int
	if v.Id, n, err = ChunkIDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Source, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.ContentHash, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = unmarshalVector(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.ConceptIds, m, err = unmarshalIDs(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var bits uint32
	if bits, m, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.ConceptDensity = math.Float32frombits(bits)
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (chunkEntryMUS) Size(v ChunkEntry) int {
	return ChunkIDMUS.Size(v.Id) +
		ord.String.Size(v.Source) +
		ord.String.Size(v.Text) +
		ord.String.Size(v.ContentHash) +
		sizeVector(v.Vector) +
		sizeIDs(v.ConceptIds) +
		varint.Uint32.Size(math.Float32bits(v.ConceptDensity)) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}

type conceptEntryMUS struct{}

func (conceptEntryMUS) Marshal(v ConceptEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += varint.Int.Marshal(int(v.Kind), bs[n:])
	n += marshalStrings(v.Sources, bs[n:])
	n += marshalStrings(v.RelatedNames, bs[n:])
	n += marshalStrings(v.Synonyms, bs[n:])
	n += marshalStrings(v.BroaderTerms, bs[n:])
	n += marshalStrings(v.NarrowerTerms, bs[n:])
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += marshalVector(v.Embedding, bs[n:])
	n += varint.Int.Marshal(v.Weight, bs[n:])
	n += varint.Int.Marshal(int(v.Enrichment), bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (conceptEntryMUS) Unmarshal(bs []byte) (v ConceptEntry, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var kind int
	if kind, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.Kind = ConceptKind(kind)
	if v.Sources, m, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.RelatedNames, m, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Synonyms, m, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.BroaderTerms, m, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.NarrowerTerms, m, err = unmarshalStrings(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Summary, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Embedding, m, err = unmarshalVector(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Weight, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var enrichment int
	if enrichment, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	v.Enrichment = Enrichment(enrichment)
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (conceptEntryMUS) Size(v ConceptEntry) int {
	return IDMUS.Size(v.Id) +
		ord.String.Size(v.Name) +
		varint.Int.Size(int(v.Kind)) +
		sizeStrings(v.Sources) +
		sizeStrings(v.RelatedNames) +
		sizeStrings(v.Synonyms) +
		sizeStrings(v.BroaderTerms) +
		sizeStrings(v.NarrowerTerms) +
		ord.String.Size(v.Summary) +
		sizeVector(v.Embedding) +
		varint.Int.Size(v.Weight) +
		varint.Int.Size(int(v.Enrichment)) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}
