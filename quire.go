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


package quire

import (
	"context"
	"log/slog"

	"github.com/poiesic/quire/ai"
	"github.com/poiesic/quire/ai/openai"
	"github.com/poiesic/quire/cache"
	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/config"
	"github.com/poiesic/quire/generation"
	"github.com/poiesic/quire/ingestion"
	"github.com/poiesic/quire/retry"
	"github.com/poiesic/quire/storage"
	"github.com/poiesic/quire/storage/badger"
	"github.com/poiesic/quire/summary"
	"github.com/poiesic/quire/workers"
)

// Engine wires storage, the model provider and the generation components
// from a single Config.
type Engine struct {
	cfg          *config.Config
	backend      *badger.Backend
	versions     storage.VersionRepository
	summaryRepo  storage.SummaryRepository
	provider     ai.AIProvider
	cache        *cache.ContentCache
	pool         *workers.Pool
	chunker      *chunking.Chunker
	orchestrator *generation.Orchestrator
	summarizer   *summary.Generator
	logger       *slog.Logger

	// ownsProvider is false when the caller supplied the provider.
	ownsProvider bool
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	inMemory bool
}

// WithProvider supplies the model provider instead of building an
// OpenAI-compatible one from the config.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemoryMetadata keeps version and summary records in memory.
// Version directories are still created on disk.
func WithInMemoryMetadata() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// Open validates cfg and builds an Engine under cfg.DataDir. A nil cfg uses
// config.Default(). A provider passed with WithProvider stays owned by the
// caller and is not closed by the Engine.
func Open(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := slog.Default().With("component", "engine")

	backend, err := badger.OpenBackend(cfg.MetaDir(), options.inMemory)
	if err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, backend: backend, logger: logger}
	if err := e.init(options); err != nil {
		if e.ownsProvider {
			e.provider.Close()
		}
		backend.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(options *engineOptions) error {
	cfg := e.cfg

	versions, err := badger.NewVersionRepository(e.backend, cfg.VersionsDir())
	if err != nil {
		return err
	}
	e.versions = versions
	e.summaryRepo = badger.NewSummaryRepository(e.backend)

	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = openai.NewProvider(cfg.Provider()); err != nil {
			return err
		}
		e.ownsProvider = true
	}

	if e.cache, err = cache.New(cfg.CacheTTL(), cfg.CacheCapacity); err != nil {
		return err
	}
	if e.pool, err = workers.New(cfg.MaxWorkers); err != nil {
		return err
	}
	if e.chunker, err = chunking.New(
		chunking.WithMaxChunkSize(cfg.MaxChunkSize),
		chunking.WithWindow(cfg.WindowSize, cfg.WindowOverlap),
	); err != nil {
		return err
	}

	policy, err := retry.New(
		retry.WithMaxAttempts(cfg.MaxRetries),
		retry.WithBaseDelay(cfg.RetryBaseDelay),
	)
	if err != nil {
		return err
	}

	e.orchestrator, err = generation.NewOrchestrator(e.provider.Documenter(),
		generation.WithChunker(e.chunker),
		generation.WithThresholds(cfg.Thresholds()),
		generation.WithSubChunkTokens(cfg.MaxTokensPerChunk),
		generation.WithExcerptTokens(cfg.ExcerptTokens),
		generation.WithCache(e.cache),
		generation.WithRetryPolicy(policy),
		generation.WithPool(e.pool),
	)
	if err != nil {
		return err
	}

	if cfg.EnableSmartSummaries {
		e.summarizer, err = summary.NewGenerator(e.provider.Summarizer(), e.summaryRepo,
			summary.WithRetryPolicy(policy))
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the metadata store and any provider the Engine built.
func (e *Engine) Close() error {
	if e.ownsProvider {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := e.versions.Close(); err != nil {
		e.logger.Error("error closing version repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) Versions() storage.VersionRepository {
	return e.versions
}

func (e *Engine) Orchestrator() *generation.Orchestrator {
	return e.orchestrator
}

// Summarizer returns nil when smart summaries are disabled.
func (e *Engine) Summarizer() *summary.Generator {
	return e.summarizer
}

// CountSummaries reports the number of persisted summaries.
func (e *Engine) CountSummaries(ctx context.Context) (int, error) {
	return e.summaryRepo.CountSummaries(ctx)
}

// ClearSummaries drops every persisted summary. The in-process content
// cache is cleared as well.
func (e *Engine) ClearSummaries(ctx context.Context) error {
	e.cache.Clear()
	return e.summaryRepo.ClearSummaries(ctx)
}

// NewPipeline builds an ingestion pipeline sharing the engine's components.
// Caller options are applied last.
func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithChunker(e.chunker),
		ingestion.WithPool(e.pool),
		ingestion.WithOutputDir(e.cfg.DocumentationDir()),
	}
	if e.summarizer != nil {
		base = append(base, ingestion.WithSummaries(e.summarizer))
	}
	return ingestion.NewPipeline(e.versions, e.orchestrator, append(base, opts...)...)
}
