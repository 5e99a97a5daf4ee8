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


package ingestion

import (
	"strings"

	"github.com/poiesic/corpora/core"
)

// DefaultChunkTokens is the target retrieval chunk size.
const DefaultChunkTokens = 512

// Chunker cuts documents into retrieval-sized chunks on paragraph
// boundaries and tags each chunk with the concepts it mentions.
type Chunker struct {
	chunkTokens int
	splitter    *Splitter
}

// NewChunker creates a chunker that counts tokens with the given splitter.
func NewChunker(splitter *Splitter, chunkTokens int) *Chunker {
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}
	return &Chunker{
		chunkTokens: chunkTokens,
		splitter:    splitter,
	}
}

// ChunkDocument produces chunk entries for a document. Each chunk carries
// the IDs of the concept names its text mentions and a ConceptDensity of
// matched mentions per token. IDs and content hashes are left for the
// store to assign on upsert.
func (c *Chunker) ChunkDocument(source, text string, conceptNames []string) []*core.ChunkEntry {
	texts := c.cut(text)
	chunks := make([]*core.ChunkEntry, 0, len(texts))
	for _, chunkText := range texts {
		entry := &core.ChunkEntry{
			Source: source,
			Text:   chunkText,
		}
		entry.ConceptIds, entry.ConceptDensity = c.tagConcepts(chunkText, conceptNames)
		chunks = append(chunks, entry)
	}
	return chunks
}

// cut splits text into ~chunkTokens pieces on paragraph boundaries.
// A single paragraph above the limit is hard-split on word boundaries.
func (c *Chunker) cut(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	var sb strings.Builder
	current := 0

	flush := func() {
		if sb.Len() > 0 {
			out = append(out, sb.String())
			sb.Reset()
			current = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		tokens := c.splitter.CountTokens(para)

		if tokens > c.chunkTokens {
			flush()
			out = append(out, c.hardSplit(para)...)
			continue
		}
		if current > 0 && current+tokens > c.chunkTokens {
			flush()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(para)
		current += tokens
	}
	flush()
	return out
}

// hardSplit divides an oversized paragraph on word boundaries.
func (c *Chunker) hardSplit(para string) []string {
	words := strings.Fields(para)
	var out []string
	var sb strings.Builder
	current := 0

	for _, word := range words {
		tokens := c.splitter.CountTokens(word)
		if current > 0 && current+tokens > c.chunkTokens {
			out = append(out, sb.String())
			sb.Reset()
			current = 0
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(word)
		current += tokens
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	return out
}

// tagConcepts finds which concept names a chunk mentions and computes the
// mention density. Matching is case-insensitive substring search; names
// come pre-normalized from extraction.
func (c *Chunker) tagConcepts(chunkText string, conceptNames []string) ([]core.ID, float32) {
	lower := strings.ToLower(chunkText)
	tokens := c.splitter.CountTokens(chunkText)

	var ids []core.ID
	mentions := 0
	for _, name := range conceptNames {
		count := strings.Count(lower, name)
		if count == 0 {
			continue
		}
		ids = append(ids, core.IDForName(name))
		mentions += count
	}

	density := float32(0)
	if tokens > 0 {
		density = float32(mentions) / float32(tokens)
	}
	return ids, density
}
