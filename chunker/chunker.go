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


// Package chunker splits meeting transcripts into overlapping chunks sized
// for embedding. Chunk boundaries prefer paragraph and sentence breaks so
// each chunk reads as a coherent passage.
package chunker

import (
	"strings"

	"github.com/openclerk/openclerk/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1600

	// DefaultChunkOverlap is the number of characters shared between
	// adjacent chunks so context is not lost at boundaries.
	DefaultChunkOverlap = 200
)

// Chunker splits transcript text into core.Chunk values.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// Option customizes a Chunker.
type Option func(*config)

type config struct {
	chunkSize    int
	chunkOverlap int
}

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks in characters.
func WithChunkOverlap(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.chunkOverlap = n
		}
	}
}

// New creates a Chunker with the given options applied over the defaults.
func New(opts ...Option) *Chunker {
	cfg := &config{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.chunkSize),
			textsplitter.WithChunkOverlap(cfg.chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		),
	}
}

// Split divides a transcript into ordered chunks for the given video.
// Whitespace-only input produces no chunks. Vectors are left nil; the
// ingestion pipeline fills them in during embedding.
func (c *Chunker) Split(videoID, transcript string) ([]core.Chunk, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(transcript)
	if err != nil {
		return nil, err
	}

	chunks := make([]core.Chunk, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{
			Id:      core.IDFromContent(videoID + "\x00" + part),
			VideoID: videoID,
			Index:   len(chunks),
			Text:    part,
		})
	}
	return chunks, nil
}
