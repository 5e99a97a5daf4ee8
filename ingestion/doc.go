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


// Package ingestion turns raw documents into catalog entries, concepts and
// retrieval chunks.
//
// The pipeline runs extraction through a content-addressed stage cache so
// model work is never repeated for unchanged text. Documents above the
// multi-pass threshold are split into paragraph-aligned slices extracted
// concurrently on a worker pool, each slice cached under its own hash, and
// the per-slice results merged by set union. Writes follow a strict order:
// stage cache first, then concepts, then the catalog entry, then chunks.
// A crash at any point loses no paid-for model output and never leaves an
// entity referencing a concept that was not written first.
package ingestion
