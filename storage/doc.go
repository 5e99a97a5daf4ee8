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


// Package storage defines the repository interfaces for the three-entity
// store (catalog, chunks, concepts) and the serialization helpers shared by
// backend implementations.
//
// Relationships between entities are expressed through identifier arrays
// rather than join tables, and only the chunk-to-catalog direction is checked
// at write time. The concept direction is maintained by convention; the
// badger subpackage provides a reconciliation pass that detects and repairs
// drift.
package storage
