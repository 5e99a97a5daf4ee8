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

import (
	"log/slog"
	"sync"
)

// FNV-1a 32-bit parameters.
const (
	fnvOffsetBasis uint32 = 0x811c9dc5
	fnvPrime       uint32 = 0x01000193
)

// IDForName computes the deterministic identifier for a name using the
// 32-bit FNV-1a hash. It is a pure function: the hash itself is the source
// of truth for identifier assignment, never a mapping file or a sequence.
//
// Reference values:
//
//	IDForName("software engineering") == 3612017291
//	IDForName("distributed systems") == 2409825216
func IDForName(name string) ID {
	h := fnvOffsetBasis
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= fnvPrime
	}
	return ID(h)
}

// Registry caches name-to-ID and ID-to-name mappings. The cache is purely an
// optimization over IDForName and is safe to discard and rebuild at any time.
// NameOf only resolves IDs that were previously registered through IDOf,
// since the hash is not invertible.
//
// When two distinct names hash to the same ID the first-registered name wins
// and the collision counter is incremented. At 32-bit width with ~40,000
// distinct names the birthday approximation puts collision probability on
// the order of 1e-4, so this is treated as a data-quality edge case rather
// than an error.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]ID
	byID       map[ID]string
	collisions int
	logger     *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger. Default is slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRegistry creates an empty identifier registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[string]ID),
		byID:   make(map[ID]string),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IDOf returns the identifier for name, registering it in the bidirectional
// cache. On a cache miss the hash is recomputed, which is always correct.
func (r *Registry) IDOf(name string) ID {
	r.mu.RLock()
	if id, ok := r.byName[name]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	id := IDForName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[id]; ok && existing != name {
		// First-registered name wins.
		r.collisions++
		r.logger.Warn("identifier collision", "id", uint32(id), "name", name, "existing", existing)
		r.byName[name] = id
		return id
	}
	r.byName[name] = id
	r.byID[id] = name
	return id
}

// NameOf returns the name previously registered for id, if any.
func (r *Registry) NameOf(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	return name, ok
}

// Collisions returns the number of distinct-name hash collisions observed.
func (r *Registry) Collisions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collisions
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Reset discards the cache. The registry remains fully usable afterwards
// because every mapping is reconstructible from IDForName.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]ID)
	r.byID = make(map[ID]string)
	r.collisions = 0
}
