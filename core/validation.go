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

import "fmt"

// ValidateCatalogEntry validates a CatalogEntry according to domain rules.
//
// Validation rules:
//   - Source must not be empty
//   - ConceptNames and ConceptIds must have equal length
//   - ConceptIds[i] must equal IDForName(ConceptNames[i])
//
// NOT validated (populated during ingestion):
//   - Title and Summary (may be empty until extraction completes)
//   - CategoryIds (may be empty for uncategorized documents)
func ValidateCatalogEntry(entry *CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidCatalogEntry)
	}

	if entry.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCatalogEntry, ErrEmptySource)
	}

	if len(entry.ConceptNames) != len(entry.ConceptIds) {
		return fmt.Errorf("%w: %w: %d names, %d ids",
			ErrInvalidCatalogEntry, ErrConceptArrayMismatch,
			len(entry.ConceptNames), len(entry.ConceptIds))
	}

	for i, name := range entry.ConceptNames {
		if entry.ConceptIds[i] != IDForName(name) {
			return fmt.Errorf("%w: %w: %q at position %d",
				ErrInvalidCatalogEntry, ErrIdentifierMismatch, name, i)
		}
	}

	return nil
}

// ValidateChunkEntry validates a ChunkEntry according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding step runs)
//   - ConceptIds (can be empty until tagging runs)
//   - Id (0 is replaced with a content-derived ID at write time)
//
// Whether Source names a live catalog entry is checked by the store at
// write time, not here.
func ValidateChunkEntry(chunk *ChunkEntry) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunkEntry)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkEntry, ErrEmptyText)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkEntry, ErrEmptySource)
	}

	return nil
}

// ValidateConceptEntry validates a ConceptEntry according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Kind must be a valid ConceptKind
//   - Id, when set, must equal IDForName(Name)
//
// NOT validated (populated by processors):
//   - Embedding (can be empty until embedded)
//   - Sources and Weight (maintained by the store on upsert)
func ValidateConceptEntry(concept *ConceptEntry) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConceptEntry)
	}

	if concept.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConceptEntry, ErrEmptyConceptName)
	}

	if err := ValidateConceptKind(concept.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConceptEntry, err)
	}

	if concept.Id != 0 && concept.Id != IDForName(concept.Name) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConceptEntry, ErrIdentifierMismatch, concept.Name)
	}

	return nil
}

// ValidateConceptKind validates that a ConceptKind has a valid value.
func ValidateConceptKind(kind ConceptKind) error {
	switch kind {
	case KindThematic, KindTerminology, KindCategory:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidConceptKind, kind)
	}
}
