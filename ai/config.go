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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// RecapHost is the base URL for the recap generation service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	RecapHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// RecapModel is the model identifier to use for recap generation.
	// Example: "qwen2.5:7b", "gpt-4o-mini"
	RecapModel string

	// Token is the API token sent to both services. Local OpenAI-compatible
	// servers usually accept any non-empty value.
	// Default: "none"
	Token string

	// MaxInputChars caps the transcript length sent to the recap model.
	// Longer transcripts are truncated at a sentence boundary before this
	// limit. Default: 48000
	MaxInputChars int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithRecapHost sets the recap service host URL.
func WithRecapHost(host string) ConfigOption {
	return func(c *Config) {
		c.RecapHost = host
	}
}

// WithHost sets both embedding and recap hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.RecapHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRecapModel sets the recap model identifier.
func WithRecapModel(model string) ConfigOption {
	return func(c *Config) {
		c.RecapModel = model
	}
}

// WithToken sets the API token used for both services.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithMaxInputChars sets the transcript truncation limit for recap generation.
func WithMaxInputChars(n int) ConfigOption {
	return func(c *Config) {
		c.MaxInputChars = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default, both services use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		RecapHost:      defaultHost,
		EmbeddingModel: "embeddinggemma",
		RecapModel:     "qwen2.5:7b",
		Token:          "none",
		MaxInputChars:  48000,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.RecapHost != "" && !strings.HasSuffix(c.RecapHost, "/v1") {
		c.RecapHost = strings.TrimSuffix(c.RecapHost, "/")
		c.RecapHost = c.RecapHost + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.RecapHost == "" {
		return errors.New("ai config: RecapHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.RecapModel == "" {
		return errors.New("ai config: RecapModel is required")
	}
	if c.MaxInputChars <= 0 {
		return errors.New("ai config: MaxInputChars must be positive")
	}
	return nil
}
