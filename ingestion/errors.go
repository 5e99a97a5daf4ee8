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

import "errors"

var (
	// ErrCatalogRepositoryRequired is returned when a nil catalog repository is provided
	ErrCatalogRepositoryRequired = errors.New("catalog repository is required")
	// ErrChunkRepositoryRequired is returned when a nil chunk repository is provided
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")
	// ErrConceptRepositoryRequired is returned when a nil concept repository is provided
	ErrConceptRepositoryRequired = errors.New("concept repository is required")
	// ErrProviderRequired is returned when a nil AI provider is provided
	ErrProviderRequired = errors.New("ai provider is required")
	// ErrCacheRequired is returned when a nil stage cache is provided
	ErrCacheRequired = errors.New("stage cache is required")
	// ErrCacheOnlyMiss is returned in cache-only mode when a document has no
	// cached extraction. Nothing has been written for that document.
	ErrCacheOnlyMiss = errors.New("no cached extraction for document in cache-only mode")
	// ErrEmptySource is returned when a document has no source identifier.
	ErrEmptySource = errors.New("document source cannot be empty")
)
