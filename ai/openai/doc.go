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


// Package openai implements the ai interfaces against OpenAI-compatible APIs.
//
// Both the embedder and the recap generator are built on langchaingo clients,
// so any server speaking the OpenAI wire protocol works: Ollama, LocalAI,
// vLLM, or the OpenAI platform itself. Recap generation requests JSON mode
// and repairs common formatting defects before parsing; responses that still
// fail to parse are reported as ai.ErrMalformedResponse.
package openai
