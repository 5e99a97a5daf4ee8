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


// Package core defines the domain model of the knowledge base: catalog
// entries, chunks, concepts, deterministic identifier assignment, and the
// serializers used by the storage layer.
//
// Identifiers for concepts and categories come from the 32-bit FNV-1a hash
// of the concept name (IDForName); chunk identifiers come from BLAKE2b
// content hashing. Neither is stored anywhere authoritative; the functions
// themselves are the source of truth.
package core
