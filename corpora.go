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


package corpora

import (
	"io"
	"log/slog"

	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/ai/openai"
	"github.com/poiesic/corpora/ingestion"
	"github.com/poiesic/corpora/reembed"
	"github.com/poiesic/corpora/search"
	"github.com/poiesic/corpora/stagecache"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
)

// Engine ties the store, the stage cache and the AI provider together and
// hands out pipelines, searchers and maintenance tools over them.
type Engine struct {
	backend     *badger.Backend
	catalogRepo storage.CatalogRepository
	chunkRepo   storage.ChunkRepository
	conceptRepo storage.ConceptRepository
	cache       *stagecache.Cache
	provider    ai.Provider
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig  *ai.Config
	cacheOpts []stagecache.Option
	provider  ai.Provider
}

// WithAIConfig overrides the default AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithCacheOptions forwards options to the stage cache (directory, TTL).
func WithCacheOptions(opts ...stagecache.Option) EngineOption {
	return func(o *engineOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// WithProvider injects a pre-built AI provider instead of constructing one
// from configuration. Used by tests.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	catalogRepo, err := badger.NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	conceptRepo, err := badger.NewConceptRepository(backend)
	if err != nil {
		chunkRepo.Close()
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	cache, err := stagecache.New(options.cacheOpts...)
	if err != nil {
		conceptRepo.Close()
		chunkRepo.Close()
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			conceptRepo.Close()
			chunkRepo.Close()
			catalogRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Engine{
		backend:     backend,
		catalogRepo: catalogRepo,
		chunkRepo:   chunkRepo,
		conceptRepo: conceptRepo,
		cache:       cache,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.conceptRepo.Close(); err != nil {
		e.logger.Error("error closing concept repository", "err", err)
		return err
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.catalogRepo.Close(); err != nil {
		e.logger.Error("error closing catalog repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) CatalogRepository() storage.CatalogRepository {
	return e.catalogRepo
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

func (e *Engine) ConceptRepository() storage.ConceptRepository {
	return e.conceptRepo
}

func (e *Engine) StageCache() *stagecache.Cache {
	return e.cache
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.catalogRepo, e.chunkRepo, e.conceptRepo, e.provider, e.cache, opts...)
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.catalogRepo, e.chunkRepo, e.conceptRepo, e.provider.Embedder(), opts...)
}

func (e *Engine) NewReconciler() *storage.Reconciler {
	return storage.NewReconciler(e.catalogRepo, e.chunkRepo, e.conceptRepo, e.logger)
}

func (e *Engine) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(e.chunkRepo, e.provider.Embedder(), config, progress)
}

func (e *Engine) NewConceptReembedder(config *reembed.Config, progress io.Writer) *reembed.ConceptReembedder {
	return reembed.NewConceptReembedder(e.conceptRepo, e.provider.Embedder(), config, progress)
}
