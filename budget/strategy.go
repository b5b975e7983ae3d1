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


package budget

import (
	"errors"
	"fmt"

	"github.com/poiesic/quire/core"
)

// Thresholds is the token table that drives strategy selection.
// An estimate below Chunked selects full, below Summarized selects chunked,
// below StructureOnly selects summarized, anything else structure-only.
type Thresholds struct {
	Chunked       int
	Summarized    int
	StructureOnly int
}

// DefaultThresholds returns the stock table (4000 / 20000 / 100000).
func DefaultThresholds() Thresholds {
	return Thresholds{
		Chunked:       4000,
		Summarized:    20000,
		StructureOnly: 100000,
	}
}

// Validate checks that thresholds are positive and non-decreasing.
func (t Thresholds) Validate() error {
	if t.Chunked < 1 {
		return fmt.Errorf("%w: chunked threshold must be positive", core.ErrValidation)
	}
	if t.Summarized < t.Chunked || t.StructureOnly < t.Summarized {
		return fmt.Errorf("%w: %w", core.ErrValidation, errors.New("thresholds must be non-decreasing"))
	}
	return nil
}

// Select maps a token estimate onto a strategy. It is a pure function of
// its arguments.
func Select(tokens int, t Thresholds) core.Strategy {
	switch {
	case tokens < t.Chunked:
		return core.StrategyFull
	case tokens < t.Summarized:
		return core.StrategyChunked
	case tokens < t.StructureOnly:
		return core.StrategySummarized
	default:
		return core.StrategyStructureOnly
	}
}

// Selector binds an Estimator and a threshold table.
type Selector struct {
	estimator  Estimator
	thresholds Thresholds
}

// NewSelector creates a Selector. A nil estimator uses the heuristic default.
func NewSelector(estimator Estimator, thresholds Thresholds) (*Selector, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if estimator == nil {
		estimator = NewEstimator()
	}
	return &Selector{estimator: estimator, thresholds: thresholds}, nil
}

// Select returns the strategy for an already computed estimate.
func (s *Selector) Select(tokens int) core.Strategy {
	return Select(tokens, s.thresholds)
}

// Classify estimates text and selects its strategy in one step.
func (s *Selector) Classify(text string) (int, core.Strategy) {
	tokens := s.estimator.Estimate(text)
	return tokens, s.Select(tokens)
}

// Estimator returns the bound estimator.
func (s *Selector) Estimator() Estimator {
	return s.estimator
}

// Thresholds returns the bound table.
func (s *Selector) Thresholds() Thresholds {
	return s.thresholds
}
