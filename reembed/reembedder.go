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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/retry"
	"github.com/openclerk/openclerk/storage"
)

// meetingScanLimit bounds the meeting listing. Well past any realistic
// single-channel corpus.
const meetingScanLimit = 1 << 20

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks).
	ReportInterval int

	// Retry governs embedding request retries. The zero value applies
	// the package defaults.
	Retry retry.Policy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      64,
		ReportInterval: 100,
	}
}

// Reembedder regenerates embeddings for every stored chunk, one meeting
// at a time.
type Reembedder struct {
	meetings storage.MeetingRepository
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(meetings storage.MeetingRepository, chunks storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = DefaultConfig().ReportInterval
	}

	return &Reembedder{
		meetings: meetings,
		chunks:   chunks,
		embedder: embedder,
		config:   config,
		progress: progress,
	}
}

// Run re-embeds the chunk sets of all stored meetings. Each meeting's set is
// replaced atomically once all of its chunks have new vectors; a failure
// leaves that meeting and all later ones on their prior vectors.
func (r *Reembedder) Run(ctx context.Context) error {
	meetings, err := r.meetings.RecentMeetings(ctx, meetingScanLimit)
	if err != nil {
		return fmt.Errorf("failed to list meetings: %w", err)
	}

	// Collect the chunk sets up front so the tracker knows the total.
	type job struct {
		videoID string
		chunks  []*core.Chunk
	}
	var (
		jobs        []job
		totalChunks int
	)
	for _, meeting := range meetings {
		chunkSet, err := r.chunks.ActiveChunks(ctx, meeting.VideoID)
		if err != nil {
			return fmt.Errorf("failed to load chunks for %s: %w", meeting.VideoID, err)
		}
		if len(chunkSet) == 0 {
			continue
		}
		jobs = append(jobs, job{videoID: meeting.VideoID, chunks: chunkSet})
		totalChunks += len(chunkSet)
	}

	if totalChunks == 0 {
		fmt.Fprintf(r.progress, "No chunks found (0 meetings with chunk sets)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Re-embedding %d chunks across %d meetings (batch size: %d)\n",
		totalChunks, len(jobs), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(jobs), totalChunks, r.config.ReportInterval)
	tracker.Start()

	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.reembedMeeting(ctx, j.videoID, j.chunks, tracker); err != nil {
			return fmt.Errorf("meeting %s: %w", j.videoID, err)
		}
		tracker.MeetingLive(j.videoID, len(j.chunks))
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		totalChunks, elapsed.Round(time.Second), float64(totalChunks)/elapsed.Seconds())

	return nil
}

// reembedMeeting computes fresh vectors for one meeting's chunk set and
// publishes them in a single replacement.
func (r *Reembedder) reembedMeeting(ctx context.Context, videoID string, chunks []*core.Chunk, tracker *ProgressTracker) error {
	for start := 0; start < len(chunks); start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		var embeddings [][]float32
		err := r.config.Retry.Do(ctx, func(ctx context.Context) error {
			var err error
			embeddings, err = r.embedder.EmbedTexts(ctx, texts)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		for i := range batch {
			batch[i].Vector = NormalizeVector(embeddings[i])
		}
		tracker.ChunksEmbedded(len(batch))
	}

	if err := r.chunks.ReplaceChunks(ctx, videoID, chunks); err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}
	return nil
}
