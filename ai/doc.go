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


// Package ai defines the model service abstractions Corpora depends on.
//
// The package holds interfaces only; the engine and the ingestion pipeline
// depend on these abstractions rather than on any concrete client:
//
//   - Embedder: generates vector embeddings from text
//   - DocumentExtractor: derives a document's concept structure
//   - Summarizer: writes category summaries
//   - Thesaurus: expands concept names into controlled-vocabulary relations
//   - Provider: aggregates the services behind one lifecycle with a
//     Verify preflight
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation over OpenAI-compatible APIs
//   - ai/mock: test doubles with injectable behavior, no network
//
// Production constructors return interface types to prevent coupling to a
// concrete client; mock constructors return concrete types so tests can
// inject behavior and assert call counts. The Thesaurus has no production
// implementation here: it is an integration point for an external
// vocabulary service, and only the mock ships with the module.
package ai
