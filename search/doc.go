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


// Package search ranks chunks and documents against natural-language
// queries by fusing five independent relevance signals: vector cosine
// similarity, BM25 lexical relevance over the candidate set, title and
// filename match, concept-tag overlap, and thesaurus-expanded term match.
// Fusion is a plain weighted sum; the weights are configuration with
// sensible defaults.
package search
