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


package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/quire/core"
)

// ErrInvalidMaxAttempts is returned when a policy is built with a
// non-positive attempt budget.
var ErrInvalidMaxAttempts = fmt.Errorf("%w: maxAttempts must be > 0", core.ErrValidation)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Policy retries an operation with exponential backoff.
// The delay before attempt n+1 is BaseDelay * 2^(n-1).
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	retryIf     func(error) bool
	logger      *slog.Logger
}

// Option configures a Policy.
type Option func(*Policy) error

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = n
		return nil
	}
}

// WithBaseDelay sets the delay before the second attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) error {
		if d < 0 {
			d = 0
		}
		p.baseDelay = d
		return nil
	}
}

// WithRetryIf restricts retries to errors for which fn returns true.
// Errors rejected by fn are returned after the attempt that produced them.
func WithRetryIf(fn func(error) bool) Option {
	return func(p *Policy) error {
		p.retryIf = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// TransientOnly is a WithRetryIf predicate that retries only errors
// wrapping core.ErrTransientExternal.
func TransientOnly(err error) bool {
	return errors.Is(err, core.ErrTransientExternal)
}

// New creates a Policy with 3 attempts and a 1s base delay unless
// overridden.
func New(opts ...Option) (*Policy, error) {
	p := &Policy{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "retry")
	return p, nil
}

// MaxAttempts returns the attempt budget.
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Delay returns the wait that follows a failed attempt (1-based).
func (p *Policy) Delay(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// Do runs operation until it succeeds or the attempt budget is spent.
// The error from the last attempt is returned unchanged.
func (p *Policy) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 1 {
				p.logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !p.retryable(lastErr) {
			p.logger.Debug("operation failed with non-retryable error", "attempt", attempt, "err", lastErr)
			return lastErr
		}

		p.logger.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", p.maxAttempts, "err", lastErr)

		// Don't sleep after the last attempt
		if attempt == p.maxAttempts {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (p *Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.retryIf != nil {
		return p.retryIf(err)
	}
	return true
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p *Policy, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
