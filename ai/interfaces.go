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


package ai

import (
	"context"
	"fmt"

	"github.com/poiesic/quire/core"
)

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = fmt.Errorf("%w: empty completion", core.ErrTransientExternal)

// Generator turns a prompt into text using a language model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends prompt to the model and returns its completion.
	// Failures of the remote call are wrapped with core.ErrTransientExternal.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// AIProvider aggregates the generators used for documentation and for
// per-file summaries, which may run different models or temperatures.
type AIProvider interface {
	// Documenter returns the generator used for documentation.
	Documenter() Generator

	// Summarizer returns the generator used for short file synopses.
	Summarizer() Generator

	// Close releases resources held by the provider and its generators.
	Close() error
}
