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


// Package config loads application configuration from the environment,
// with optional .env file support for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	AI     AIConfig
	Feed   FeedConfig
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins string
}

// StoreConfig configures the embedded database.
type StoreConfig struct {
	// Path is the badger database directory.
	Path string
}

// AIConfig configures the embedding and recap services.
type AIConfig struct {
	Host           string
	EmbeddingModel string
	RecapModel     string
	Token          string
	MaxInputChars  int
}

// FeedConfig configures meeting video discovery.
type FeedConfig struct {
	// ChannelID identifies the channel whose feed is polled.
	ChannelID string

	// WorkDir holds temporary subtitle files from the fallback fetch path.
	WorkDir string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	maxInputChars, _ := strconv.Atoi(getEnv("AI_MAX_INPUT_CHARS", "48000"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "data/openclerk"),
		},
		AI: AIConfig{
			Host:           getEnv("AI_HOST", "http://localhost:11434"),
			EmbeddingModel: getEnv("AI_EMBEDDING_MODEL", "embeddinggemma"),
			RecapModel:     getEnv("AI_RECAP_MODEL", "qwen2.5:7b"),
			Token:          getEnv("AI_TOKEN", "none"),
			MaxInputChars:  maxInputChars,
		},
		Feed: FeedConfig{
			ChannelID: getEnv("FEED_CHANNEL_ID", ""),
			WorkDir:   getEnv("TRANSCRIPT_WORK_DIR", "data/subtitles"),
		},
	}

	return cfg, nil
}

// getEnv returns the environment value or a default when unset.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
