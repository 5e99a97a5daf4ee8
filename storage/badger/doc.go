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


// Package badger implements the three-entity store on BadgerDB.
//
// Each table keeps a primary record per entity plus secondary index keys:
// concept-to-source and concept-to-chunk composite keys (BigEndian so prefix
// scans stay ordered) and a name-to-id index for concepts. Vector search is
// a filtered scan over chunk records; the corpus sizes this store targets
// make an approximate index unnecessary.
package badger
