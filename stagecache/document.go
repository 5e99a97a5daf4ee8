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


package stagecache

import "time"

// CurrentVersion is the record format written by this release. Records with
// older versions are migrated on load; records from a newer release are
// treated as misses.
const CurrentVersion = 2

// ConceptData holds the extraction output cached for a document or slice.
type ConceptData struct {
	PrimaryConcepts []string            `json:"primary_concepts,omitempty"`
	TechnicalTerms  []string            `json:"technical_terms,omitempty"`
	Categories      []string            `json:"categories,omitempty"`
	Related         map[string][]string `json:"related,omitempty"`
}

// Metadata holds bibliographic fields extracted from a document.
type Metadata struct {
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Year       int    `json:"year,omitempty"`
	Publisher  string `json:"publisher,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

// DocumentData is one cached pipeline stage result, keyed by content hash.
// All stage fields are optional so partial progress (concepts extracted,
// summary not yet written) survives a crash.
type DocumentData struct {
	Version     int          `json:"version"`
	Hash        string       `json:"hash"`
	Source      string       `json:"source,omitempty"`
	ProcessedAt time.Time    `json:"processed_at"`
	Concepts    *ConceptData `json:"concepts,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Metadata    *Metadata    `json:"metadata,omitempty"`
}

// migrate upgrades a record loaded from disk to CurrentVersion. Returns
// false when the record comes from a newer release and cannot be used.
func migrate(data *DocumentData) bool {
	switch {
	case data.Version > CurrentVersion:
		return false
	case data.Version <= 1:
		// Version 1 records predate the related-names map; the concepts
		// they carry are still valid as-is.
		data.Version = CurrentVersion
	}
	return true
}
