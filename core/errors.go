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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCatalogEntry indicates a CatalogEntry failed validation.
	ErrInvalidCatalogEntry = errors.New("invalid catalog entry")

	// ErrInvalidChunkEntry indicates a ChunkEntry failed validation.
	ErrInvalidChunkEntry = errors.New("invalid chunk entry")

	// ErrInvalidConceptEntry indicates a ConceptEntry failed validation.
	ErrInvalidConceptEntry = errors.New("invalid concept entry")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyConceptName indicates the concept Name field is empty.
	ErrEmptyConceptName = errors.New("concept name cannot be empty")

	// ErrInvalidConceptKind indicates an invalid ConceptKind value.
	ErrInvalidConceptKind = errors.New("invalid concept kind")

	// ErrConceptArrayMismatch indicates ConceptNames and ConceptIds diverge
	// in length or ordering.
	ErrConceptArrayMismatch = errors.New("concept names and ids out of step")

	// ErrIdentifierMismatch indicates an entry carries an ID that is not the
	// hash of its name.
	ErrIdentifierMismatch = errors.New("identifier does not match name hash")
)
