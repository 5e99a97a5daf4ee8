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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/ai"
	"github.com/poiesic/corpora/ai/openai"
	"github.com/poiesic/corpora/ingestion"
	"github.com/poiesic/corpora/reembed"
	"github.com/poiesic/corpora/search"
	"github.com/poiesic/corpora/stagecache"
	"github.com/poiesic/corpora/storage"
	"github.com/poiesic/corpora/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "corpora",
		Usage: "Hybrid retrieval and concept indexing over document collections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract concepts from documents and index them for retrieval",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Stage cache directory (defaults to the user cache directory)",
					},
					&cli.BoolFlag{
						Name:  "use-cache",
						Usage: "Serve extractions from the stage cache when possible",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "cache-only",
						Usage: "Fail on cache miss instead of calling the model",
					},
					&cli.BoolFlag{
						Name:  "clear-cache",
						Usage: "Purge the stage cache before ingesting",
					},
					&cli.DurationFlag{
						Name:  "cache-ttl",
						Usage: "Stage cache entry time-to-live",
						Value: stagecache.DefaultTTL,
					},
					&cli.IntFlag{
						Name:  "multipass-threshold",
						Usage: "Token count above which documents are sliced for extraction",
						Value: ingestion.DefaultMultiPassThreshold,
					},
					&cli.IntFlag{
						Name:  "slice-tokens",
						Usage: "Target extraction slice size in tokens",
						Value: ingestion.DefaultSliceTokens,
					},
					&cli.IntFlag{
						Name:  "chunk-tokens",
						Usage: "Retrieval chunk size in tokens",
						Value: ingestion.DefaultChunkTokens,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent slice extractions (0 = half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for failed model calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Rank chunks or documents against a query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "docs",
						Usage: "Rank whole documents instead of chunks",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.Float64Flag{
						Name:  "weight-vector",
						Usage: "Vector similarity weight",
						Value: 0.25,
					},
					&cli.Float64Flag{
						Name:  "weight-lexical",
						Usage: "Lexical relevance weight",
						Value: 0.25,
					},
					&cli.Float64Flag{
						Name:  "weight-title",
						Usage: "Title match weight",
						Value: 0.20,
					},
					&cli.Float64Flag{
						Name:  "weight-concept",
						Usage: "Concept overlap weight",
						Value: 0.20,
					},
					&cli.Float64Flag{
						Name:  "weight-thesaurus",
						Usage: "Thesaurus expansion weight",
						Value: 0.10,
					},
				),
			},
			{
				Name:  "cache",
				Usage: "Inspect and maintain the stage cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Stage cache directory (defaults to the user cache directory)",
					},
					&cli.DurationFlag{
						Name:  "cache-ttl",
						Usage: "Stage cache entry time-to-live",
						Value: stagecache.DefaultTTL,
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Summarize cache contents",
						Action: cacheStatsCommand,
					},
					{
						Name:   "clean",
						Usage:  "Remove entries older than the TTL",
						Action: cacheCleanCommand,
					},
					{
						Name:   "clear",
						Usage:  "Remove every cache entry",
						Action: cacheClearCommand,
					},
				},
			},
			{
				Name:   "repair",
				Usage:  "Detect and optionally fix dangling references in the store",
				Action: repairCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "fix",
						Usage: "Apply repairs instead of only reporting",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all chunks with new embeddings",
				Action: reembedCommand,
				Flags:  reembedFlags(),
			},
			{
				Name:   "reembed-concepts",
				Usage:  "Reembed all concepts with new embeddings",
				Action: reembedConceptsCommand,
				Flags:  reembedFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "extractor-model",
			Usage: "Extraction model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the model service",
			EnvVars: []string{"CORPORA_API_KEY"},
		},
	}
}

func reembedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of records to process in each batch",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N records",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithExtractorModel(c.String("extractor-model")),
	}
	if key := c.String("api-key"); key != "" {
		opts = append(opts, ai.WithAPIKey(key))
	}
	return ai.NewConfig(opts...)
}

func cacheFromFlags(c *cli.Context) (*stagecache.Cache, error) {
	opts := []stagecache.Option{stagecache.WithTTL(c.Duration("cache-ttl"))}
	if dir := c.String("cache-dir"); dir != "" {
		opts = append(opts, stagecache.WithDir(dir))
	}
	return stagecache.New(opts...)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one file to ingest is required")
	}

	aiConfig := aiConfigFromFlags(c)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	cacheOpts := []stagecache.Option{stagecache.WithTTL(c.Duration("cache-ttl"))}
	if dir := c.String("cache-dir"); dir != "" {
		cacheOpts = append(cacheOpts, stagecache.WithDir(dir))
	}

	engine, err := corpora.NewEngine(c.String("db"),
		corpora.WithAIConfig(aiConfig),
		corpora.WithCacheOptions(cacheOpts...))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	if c.Bool("clear-cache") {
		if err := engine.StageCache().Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Stage cache cleared")
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithUseCache(c.Bool("use-cache")),
		ingestion.WithCacheOnly(c.Bool("cache-only")),
		ingestion.WithChunkTokens(c.Int("chunk-tokens")),
		ingestion.WithRetries(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithSplitterOptions(
			ingestion.WithMultiPassThreshold(c.Int("multipass-threshold")),
			ingestion.WithSliceTokens(c.Int("slice-tokens")),
		),
	}
	if size := c.Int("pool-size"); size > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(size))
	}

	pipeline, err := engine.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	for _, path := range c.Args().Slice() {
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Ingesting %s\n", path)
		if err := pipeline.IngestDocument(ctx, path, string(text)); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
	}

	stats := pipeline.Stats()
	fmt.Fprintf(os.Stderr, "\nDocuments:       %d\n", stats.Documents)
	fmt.Fprintf(os.Stderr, "Cache hits:      %d\n", stats.CacheHits)
	fmt.Fprintf(os.Stderr, "Model calls:     %d\n", stats.ModelCalls)
	fmt.Fprintf(os.Stderr, "Partial results: %d\n", stats.PartialResults)
	if stats.PartialResults > 0 {
		fmt.Fprintln(os.Stderr, "Some documents were only partially extracted; completed slices are cached, rerun to retry the failed ones.")
	}
	if stats.Collisions > 0 {
		fmt.Fprintf(os.Stderr, "Identifier collisions: %d (distinct concept names sharing a hash; see the log for the names)\n", stats.Collisions)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	aiConfig := aiConfigFromFlags(c)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := corpora.NewEngine(c.String("db"), corpora.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	weights := search.Weights{
		Vector:    c.Float64("weight-vector"),
		Lexical:   c.Float64("weight-lexical"),
		Title:     c.Float64("weight-title"),
		Concept:   c.Float64("weight-concept"),
		Thesaurus: c.Float64("weight-thesaurus"),
	}

	searcher, err := engine.NewSearcher(search.WithWeights(weights))
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	limit := c.Int("limit")
	if c.Bool("docs") {
		results, err := searcher.SearchDocuments(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		for i, r := range results {
			fmt.Printf("%2d. [%.3f] %s (%s)\n", i+1, r.Score, r.Entry.Title, r.Entry.Source)
		}
		return nil
	}

	results, err := searcher.SearchChunks(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	for i, r := range results {
		fmt.Printf("%2d. [%.3f] %s\n    %s\n", i+1, r.Score, r.Chunk.Source, firstLine(r.Chunk.Text))
	}
	return nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	const max = 120
	if len(text) > max {
		text = text[:max] + "..."
	}
	return text
}

func cacheStatsCommand(c *cli.Context) error {
	cache, err := cacheFromFlags(c)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	stats, err := cache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Printf("Directory: %s\n", cache.Dir())
	fmt.Printf("Entries:   %d\n", stats.Entries)
	fmt.Printf("Size:      %d bytes\n", stats.TotalBytes)
	if stats.Entries > 0 {
		fmt.Printf("Oldest:    %s\n", stats.Oldest.Format(time.RFC3339))
		fmt.Printf("Newest:    %s\n", stats.Newest.Format(time.RFC3339))
	}
	return nil
}

func cacheCleanCommand(c *cli.Context) error {
	cache, err := cacheFromFlags(c)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	removed, err := cache.CleanExpired()
	if err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}
	fmt.Printf("Removed %d expired entries\n", removed)
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	cache, err := cacheFromFlags(c)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	if err := cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Stage cache cleared")
	return nil
}

func repairCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	catalogRepo, err := badger.NewCatalogRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create catalog repository: %w", err)
	}
	defer catalogRepo.Close()

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create chunk repository: %w", err)
	}
	defer chunkRepo.Close()

	conceptRepo, err := badger.NewConceptRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create concept repository: %w", err)
	}
	defer conceptRepo.Close()

	reconciler := storage.NewReconciler(catalogRepo, chunkRepo, conceptRepo, slog.Default())
	report, err := reconciler.Reconcile(ctx, c.Bool("fix"))
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	mode := "detected"
	if report.Fixed {
		mode = "fixed"
	}
	fmt.Printf("Dangling catalog concept refs %s: %d\n", mode, report.CatalogDanglingRefs)
	fmt.Printf("Dangling chunk concept refs %s:   %d\n", mode, report.ChunkDanglingRefs)
	fmt.Printf("Stale concept sources %s:         %d\n", mode, report.StaleConceptSources)
	fmt.Printf("Orphaned concepts %s:             %d\n", mode, report.OrphanedConcepts)
	fmt.Printf("Orphaned chunks reported:           %d\n", report.OrphanedChunks)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	embedder, reembedConfig, err := embedderFromFlags(c)
	if err != nil {
		return err
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func reembedConceptsCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewConceptRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	embedder, reembedConfig, err := embedderFromFlags(c)
	if err != nil {
		return err
	}

	reembedder := reembed.NewConceptReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("concept reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func embedderFromFlags(c *cli.Context) (ai.Embedder, *reembed.Config, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return nil, nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return nil, nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return nil, nil, fmt.Errorf("max-retries must be greater than 0")
	}
	return embedder, reembedConfig, nil
}
