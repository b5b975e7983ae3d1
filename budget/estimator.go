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

import "unicode/utf8"

// DefaultCharsPerToken is the rune-to-token ratio used by HeuristicEstimator.
const DefaultCharsPerToken = 4

// Estimator approximates the generation cost of text.
// Implementations must be deterministic and monotonic under concatenation.
type Estimator interface {
	// Estimate returns a non-negative token estimate for text.
	Estimate(text string) int

	// Truncate returns the longest prefix of text whose estimate does not
	// exceed maxTokens.
	Truncate(text string, maxTokens int) string
}

// HeuristicEstimator estimates tokens as ceil(runes / CharsPerToken).
type HeuristicEstimator struct {
	CharsPerToken int
}

var _ Estimator = HeuristicEstimator{}

// NewEstimator returns the default estimator.
func NewEstimator() HeuristicEstimator {
	return HeuristicEstimator{CharsPerToken: DefaultCharsPerToken}
}

func (e HeuristicEstimator) ratio() int {
	if e.CharsPerToken < 1 {
		return DefaultCharsPerToken
	}
	return e.CharsPerToken
}

// Estimate implements Estimator.
func (e HeuristicEstimator) Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	r := e.ratio()
	return (n + r - 1) / r
}

// Truncate implements Estimator.
func (e HeuristicEstimator) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	limit := maxTokens * e.ratio()
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
