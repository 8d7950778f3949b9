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


// Package ai defines the interfaces and configuration for the AI services
// used by the recap pipeline: text embedding and recap generation.
//
// The package contains only abstractions; concrete implementations live in
// subpackages:
//
//   - ai/openai: production implementation backed by OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, the OpenAI platform itself)
//   - ai/mock: deterministic test doubles for unit testing
//
// # Configuration
//
// Services are configured through Config, created with functional options:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	    ai.WithRecapModel("qwen2.5:7b"),
//	)
//
// Config.Validate normalizes host URLs (adding the /v1 suffix expected by
// OpenAI-compatible servers) and checks that all required fields are set.
package ai
