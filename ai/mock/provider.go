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


package mock

import "github.com/poiesic/quire/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	documenter *MockGenerator
	summarizer *MockGenerator
}

// NewMockProvider creates a new mock provider with default mock generators.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockDocumenter()/GetMockSummarizer() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		documenter: NewMockGenerator(),
		summarizer: NewMockGenerator(),
	}
}

// NewMockProviderWithGenerators creates a mock provider with custom mock generators.
func NewMockProviderWithGenerators(documenter, summarizer *MockGenerator) ai.AIProvider {
	return &MockProvider{
		documenter: documenter,
		summarizer: summarizer,
	}
}

// Documenter returns the mock documentation generator.
func (p *MockProvider) Documenter() ai.Generator {
	return p.documenter
}

// Summarizer returns the mock summary generator.
func (p *MockProvider) Summarizer() ai.Generator {
	return p.summarizer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockDocumenter returns the underlying documentation mock for test assertions.
func (p *MockProvider) GetMockDocumenter() *MockGenerator {
	return p.documenter
}

// GetMockSummarizer returns the underlying summary mock for test assertions.
func (p *MockProvider) GetMockSummarizer() *MockGenerator {
	return p.summarizer
}
