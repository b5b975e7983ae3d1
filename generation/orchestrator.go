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


package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/quire/ai"
	"github.com/poiesic/quire/budget"
	"github.com/poiesic/quire/cache"
	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/retry"
	"github.com/poiesic/quire/workers"
)

const (
	// DefaultSubChunkTokens bounds each generation call on the chunked path.
	DefaultSubChunkTokens = 4000
	// DefaultExcerptTokens bounds the excerpt on the summarized path.
	DefaultExcerptTokens = 4000
)

// ErrPanicked marks a file whose processing panicked.
var ErrPanicked = errors.New("file processing panicked")

// Orchestrator picks a strategy for each file by its token estimate and
// runs the matching generation path.
type Orchestrator struct {
	generator      ai.Generator
	chunker        *chunking.Chunker
	estimator      budget.Estimator
	thresholds     budget.Thresholds
	selector       *budget.Selector
	cache          *cache.ContentCache
	policy         *retry.Policy
	pool           *workers.Pool
	subChunkTokens int
	excerptTokens  int
	logger         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithChunker sets the chunker used by the chunked path.
func WithChunker(chunker *chunking.Chunker) Option {
	return func(o *Orchestrator) error {
		if chunker == nil {
			return fmt.Errorf("%w: chunker cannot be nil", core.ErrValidation)
		}
		o.chunker = chunker
		return nil
	}
}

// WithSubChunkTokens sets the token budget for each chunked-path call.
func WithSubChunkTokens(tokens int) Option {
	return func(o *Orchestrator) error {
		if tokens <= 0 {
			return fmt.Errorf("%w: sub-chunk tokens must be positive, got %d", core.ErrValidation, tokens)
		}
		o.subChunkTokens = tokens
		return nil
	}
}

// WithExcerptTokens sets the token ceiling of the summarized-path excerpt.
func WithExcerptTokens(tokens int) Option {
	return func(o *Orchestrator) error {
		if tokens <= 0 {
			return fmt.Errorf("%w: excerpt tokens must be positive, got %d", core.ErrValidation, tokens)
		}
		o.excerptTokens = tokens
		return nil
	}
}

// WithThresholds sets the strategy threshold table.
func WithThresholds(t budget.Thresholds) Option {
	return func(o *Orchestrator) error {
		o.thresholds = t
		return nil
	}
}

// WithEstimator sets the token estimator.
func WithEstimator(e budget.Estimator) Option {
	return func(o *Orchestrator) error {
		if e == nil {
			return fmt.Errorf("%w: estimator cannot be nil", core.ErrValidation)
		}
		o.estimator = e
		return nil
	}
}

// WithCache sets the content cache.
func WithCache(c *cache.ContentCache) Option {
	return func(o *Orchestrator) error {
		if c == nil {
			return fmt.Errorf("%w: cache cannot be nil", core.ErrValidation)
		}
		o.cache = c
		return nil
	}
}

// WithRetryPolicy sets the policy wrapping every generation call.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *Orchestrator) error {
		if p == nil {
			return fmt.Errorf("%w: retry policy cannot be nil", core.ErrValidation)
		}
		o.policy = p
		return nil
	}
}

// WithPool sets the worker pool used by ProcessFiles.
func WithPool(p *workers.Pool) Option {
	return func(o *Orchestrator) error {
		if p == nil {
			return fmt.Errorf("%w: pool cannot be nil", core.ErrValidation)
		}
		o.pool = p
		return nil
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", core.ErrValidation)
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an Orchestrator around generator. Components not
// supplied through options are built with their defaults.
func NewOrchestrator(generator ai.Generator, opts ...Option) (*Orchestrator, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", core.ErrValidation)
	}

	o := &Orchestrator{
		generator:      generator,
		estimator:      budget.NewEstimator(),
		thresholds:     budget.DefaultThresholds(),
		subChunkTokens: DefaultSubChunkTokens,
		excerptTokens:  DefaultExcerptTokens,
		logger:         slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	var err error
	if o.selector, err = budget.NewSelector(o.estimator, o.thresholds); err != nil {
		return nil, err
	}
	if o.chunker == nil {
		if o.chunker, err = chunking.New(); err != nil {
			return nil, err
		}
	}
	if o.cache == nil {
		if o.cache, err = cache.New(cache.DefaultTTL, cache.DefaultCapacity); err != nil {
			return nil, err
		}
	}
	if o.policy == nil {
		if o.policy, err = retry.New(); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		if o.pool, err = workers.New(workers.DefaultSize); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Cache returns the content cache.
func (o *Orchestrator) Cache() *cache.ContentCache {
	return o.cache
}

// Selector returns the strategy selector.
func (o *Orchestrator) Selector() *budget.Selector {
	return o.selector
}

// ProcessFile documents one file. It never returns an error directly;
// failures are reported through Result.Err.
func (o *Orchestrator) ProcessFile(ctx context.Context, file core.SourceFile) Result {
	start := time.Now()
	result := Result{
		Path:      file.Path,
		Extension: file.Ext(),
	}

	if doc, ok := o.cache.Get(file.Content); ok {
		result.Status = StatusSuccess
		result.Documentation = doc
		result.Cached = true
		o.logger.Debug("cache hit", "path", file.Path)
		return result
	}

	tokens, strategy := o.selector.Classify(file.Content)
	result.Tokens = tokens
	result.Strategy = strategy

	doc, err := o.Execute(ctx, strategy, file)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = StatusError
		result.Err = err
		o.logger.Warn("file processing failed", "path", file.Path, "strategy", strategy, "err", err)
		return result
	}

	o.cache.Set(file.Content, doc)
	result.Status = StatusSuccess
	result.Documentation = doc
	o.logger.Debug("file processed", "path", file.Path, "strategy", strategy, "tokens", tokens, "duration", result.Duration)
	return result
}

// ProcessFiles documents files concurrently through the worker pool.
// Results are in input order.
func (o *Orchestrator) ProcessFiles(ctx context.Context, files []core.SourceFile) ([]Result, error) {
	results, err := workers.Run(ctx, o.pool, files, o.ProcessFile)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Status == "" {
			results[i] = Result{
				Path:      files[i].Path,
				Extension: files[i].Ext(),
				Status:    StatusError,
				Err:       ErrPanicked,
			}
		}
	}
	return results, nil
}

// Execute runs the path for strategy over file and returns the artifact.
func (o *Orchestrator) Execute(ctx context.Context, strategy core.Strategy, file core.SourceFile) (string, error) {
	switch strategy {
	case core.StrategyFull:
		return o.full(ctx, file.Path, file.Ext(), file.Content)
	case core.StrategyChunked:
		return o.chunked(ctx, file)
	case core.StrategySummarized:
		return o.summarized(ctx, file)
	case core.StrategyStructureOnly:
		return o.structureOnly(ctx, file)
	}
	return "", fmt.Errorf("%w: %w: %q", core.ErrValidation, core.ErrInvalidStrategy, strategy)
}

// generate is the single call site of the generation service.
func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	return retry.Value(ctx, o.policy, func(ctx context.Context) (string, error) {
		return o.generator.Generate(ctx, prompt)
	})
}
