// Copyright 2026 OpenClerk Authors
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

import "github.com/openclerk/openclerk/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder and recap generator instances.
type MockProvider struct {
	embedder *MockEmbedder
	recapper *MockRecapGenerator
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockRecapper() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		recapper: NewMockRecapGenerator(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, recapper *MockRecapGenerator) ai.Provider {
	return &MockProvider{
		embedder: embedder,
		recapper: recapper,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// RecapGenerator returns the mock recap generator.
func (p *MockProvider) RecapGenerator() ai.RecapGenerator {
	return p.recapper
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockRecapper returns the underlying mock recap generator for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockRecapper() *MockRecapGenerator {
	return p.recapper
}
