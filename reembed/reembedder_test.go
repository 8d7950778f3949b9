package reembed

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/openclerk/ai/mock"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/retry"
	"github.com/openclerk/openclerk/storage"
	"github.com/openclerk/openclerk/storage/badger"
)

func setupRepos(t *testing.T) (storage.MeetingRepository, storage.ChunkRepository) {
	t.Helper()

	meetings, _, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return meetings, chunks
}

// seedMeeting stores a completed meeting with a chunk set carrying the
// given vector on every chunk.
func seedMeeting(t *testing.T, meetings storage.MeetingRepository, chunks storage.ChunkRepository, videoID string, texts []string, vector []float32) {
	t.Helper()
	ctx := context.Background()

	_, err := meetings.BeginProcessing(ctx, videoID, "Meeting "+videoID,
		time.Date(2026, 2, 10, 19, 0, 0, 0, time.UTC), core.StaleProcessingAfter)
	require.NoError(t, err)

	chunkSet := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunkSet[i] = &core.Chunk{
			Id:      core.IDFromContent(videoID + "\x00" + text),
			VideoID: videoID,
			Index:   i,
			Text:    text,
			Vector:  vector,
		}
	}
	require.NoError(t, chunks.ReplaceChunks(ctx, videoID, chunkSet))

	_, err = meetings.CompleteRun(ctx, videoID, storage.RunUpdate{
		Transcript: "transcript for " + videoID,
		ChunkCount: len(texts),
		Recap:      core.Recap{Summary: "seed recap"},
	})
	require.NoError(t, err)
}

func TestRunReplacesAllVectors(t *testing.T) {
	meetings, chunks := setupRepos(t)
	ctx := context.Background()

	stale := []float32{1, 0, 0}
	seedMeeting(t, meetings, chunks, "vid-a", []string{"first chunk", "second chunk"}, stale)
	seedMeeting(t, meetings, chunks, "vid-b", []string{"third chunk"}, stale)

	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer
	r := NewReembedder(meetings, chunks, embedder, nil, &out)
	require.NoError(t, r.Run(ctx))

	for _, videoID := range []string{"vid-a", "vid-b"} {
		active, err := chunks.ActiveChunks(ctx, videoID)
		require.NoError(t, err)
		require.NotEmpty(t, active)
		for _, chunk := range active {
			assert.NotEqual(t, stale, chunk.Vector, "chunk %d of %s kept its old vector", chunk.Index, videoID)

			var magnitude float32
			for _, v := range chunk.Vector {
				magnitude += v * v
			}
			assert.InDelta(t, 1.0, magnitude, 0.001)
		}
	}

	assert.Contains(t, out.String(), "vid-a: new generation live (2 chunks)")
	assert.Contains(t, out.String(), "Re-embedding complete")
}

func TestRunEmptyCorpus(t *testing.T) {
	meetings, chunks := setupRepos(t)

	var out bytes.Buffer
	r := NewReembedder(meetings, chunks, mock.NewMockEmbedder(), nil, &out)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "No chunks found")
}

func TestRunEmbeddingFailureKeepsPriorVectors(t *testing.T) {
	meetings, chunks := setupRepos(t)
	ctx := context.Background()

	stale := []float32{1, 0, 0}
	seedMeeting(t, meetings, chunks, "vid-f", []string{"only chunk"}, stale)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("embedding host down")
	}

	config := DefaultConfig()
	config.Retry = retry.Policy{
		MaxAttempts: 2,
		Sleeper:     func(ctx context.Context, d time.Duration) error { return nil },
	}

	var out bytes.Buffer
	r := NewReembedder(meetings, chunks, embedder, config, &out)
	err := r.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vid-f")

	active, err := chunks.ActiveChunks(ctx, "vid-f")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, stale, active[0].Vector)
}

func TestNormalizeVector(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 0.0001)
	assert.InDelta(t, 0.8, normalized[1], 0.0001)

	zero := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)

	assert.Empty(t, NormalizeVector(nil))
}

func TestProgressTracker(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 2, 10, 5)

	// Updates before Start are ignored.
	tracker.ChunksEmbedded(3)
	tracker.MeetingLive("vid-a", 3)
	assert.Empty(t, out.String())

	tracker.Start()
	tracker.ChunksEmbedded(5)
	assert.Contains(t, out.String(), "5/10 chunks")

	tracker.MeetingLive("vid-a", 5)
	assert.Contains(t, out.String(), "vid-a: new generation live (5 chunks) [meeting 1/2]")

	tracker.ChunksEmbedded(100)
	tracker.MeetingLive("vid-b", 5)
	tracker.Finish()
	assert.Contains(t, out.String(), "10/10 chunks (100.0%)")
	assert.Contains(t, out.String(), "[meeting 2/2]")
}
