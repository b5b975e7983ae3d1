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


package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quire/core"
)

// DefaultSize is the concurrency ceiling used when none is configured.
const DefaultSize = 3

// Pool runs independent work items under a fixed concurrency ceiling.
// A Pool holds no goroutines between calls; each Run starts an ants pool
// sized min(size, len(items)) and releases it before returning.
type Pool struct {
	size   int
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a Pool with the given ceiling.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: pool size must be >= 1, got %d", core.ErrValidation, size)
	}
	p := &Pool{
		size:   size,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "workers")
	return p, nil
}

// Size returns the concurrency ceiling.
func (p *Pool) Size() int {
	return p.size
}

// Run applies fn to every item and returns the results in input order.
// Each item is handed to exactly one task and its result slot is written
// exactly once. fn is expected to fold its own failures into R; a panic
// inside fn is recovered, logged, and leaves the zero value in that slot.
// With one item or none, fn runs inline on the calling goroutine.
// The returned error is non-nil only if the underlying pool cannot start.
func Run[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) R) ([]R, error) {
	results := make([]R, len(items))
	if len(items) <= 1 {
		for i, item := range items {
			results[i] = invoke(ctx, p.logger, i, item, fn)
		}
		return results, nil
	}

	size := min(p.size, len(items))
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = invoke(ctx, p.logger, i, item, fn)
		})
		if submitErr != nil {
			// The task never ran, so run it here to keep the exactly-once contract.
			p.logger.Warn("pool rejected task, running inline", "index", i, "err", submitErr)
			results[i] = invoke(ctx, p.logger, i, item, fn)
			wg.Done()
		}
	}
	wg.Wait()

	p.logger.Debug("batch complete", "items", len(items), "workers", size)
	return results, nil
}

func invoke[T, R any](ctx context.Context, logger *slog.Logger, index int, item T, fn func(ctx context.Context, item T) R) (result R) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("work item panicked", "index", index, "panic", r)
			var zero R
			result = zero
		}
	}()
	return fn(ctx, item)
}
