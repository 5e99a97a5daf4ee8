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
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultMultiPassThreshold is the token count above which a document is
	// split into slices for extraction.
	DefaultMultiPassThreshold = 100_000

	// DefaultSliceTokens is the target size of one extraction slice.
	DefaultSliceTokens = 50_000
)

// Splitter counts tokens and divides oversized documents into near-equal
// slices on paragraph boundaries, with no overlap.
type Splitter struct {
	threshold   int
	sliceTokens int
	encoder     *tiktoken.Tiktoken
	logger      *slog.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithMultiPassThreshold sets the token count above which documents split.
func WithMultiPassThreshold(threshold int) SplitterOption {
	return func(s *Splitter) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithSliceTokens sets the target slice size in tokens.
func WithSliceTokens(tokens int) SplitterOption {
	return func(s *Splitter) {
		if tokens > 0 {
			s.sliceTokens = tokens
		}
	}
}

// NewSplitter creates a splitter. Token counting uses the cl100k_base
// encoding; when the encoding data is unavailable (offline first run),
// counting falls back to a bytes/4 heuristic.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		threshold:   DefaultMultiPassThreshold,
		sliceTokens: DefaultSliceTokens,
		logger:      slog.Default().With("component", "splitter"),
	}
	for _, opt := range opts {
		opt(s)
	}

	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		s.logger.Warn("cl100k_base encoding unavailable, using byte heuristic", "err", err)
	} else {
		s.encoder = encoder
	}
	return s
}

// CountTokens returns the token count of a text.
func (s *Splitter) CountTokens(text string) int {
	if s.encoder != nil {
		return len(s.encoder.Encode(text, nil, nil))
	}
	// gpt-family tokenizers average roughly 4 bytes per token on prose
	return (len(text) + 3) / 4
}

// Split divides a document for extraction. Documents at or under the
// multi-pass threshold come back as a single slice; larger documents are
// divided into near-equal paragraph-aligned slices around the target size,
// falling back to word boundaries when a single paragraph exceeds the
// target. Empty text yields no slices.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	total := s.CountTokens(text)
	if total <= s.threshold {
		return []string{text}
	}

	// Near-equal slices: dividing 120k tokens at a 50k target makes three
	// ~40k slices rather than two 50k and one 20k.
	sliceCount := (total + s.sliceTokens - 1) / s.sliceTokens
	target := (total + sliceCount - 1) / sliceCount

	paragraphs := strings.Split(text, "\n\n")
	slices := make([]string, 0, sliceCount)

	var sb strings.Builder
	current := 0
	for _, para := range paragraphs {
		tokens := s.CountTokens(para)
		if tokens > target {
			// A paragraph with no usable breaks still has to slice, or an
			// oversized wall of text would come back whole.
			if sb.Len() > 0 {
				slices = append(slices, sb.String())
				sb.Reset()
				current = 0
			}
			slices = append(slices, s.hardSplit(para, target)...)
			continue
		}
		if current > 0 && current+tokens > target {
			slices = append(slices, sb.String())
			sb.Reset()
			current = 0
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(para)
		current += tokens
	}
	if sb.Len() > 0 {
		slices = append(slices, sb.String())
	}

	s.logger.Debug("split document", "tokens", total, "slices", len(slices))
	return slices
}

// hardSplit divides a paragraph larger than the slice target on word
// boundaries.
func (s *Splitter) hardSplit(para string, target int) []string {
	words := strings.Fields(para)
	var out []string
	var sb strings.Builder
	current := 0

	for _, word := range words {
		tokens := s.CountTokens(word)
		if current > 0 && current+tokens > target {
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
