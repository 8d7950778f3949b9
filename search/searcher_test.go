package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/openclerk/ai/mock"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage/badger"
)

func setupSearcher(t *testing.T) (*Searcher, *mock.MockProvider, func(videoID string, texts ...string)) {
	t.Helper()

	_, _, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)

	searcher, err := NewSearcher(chunks, provider, WithMinSimilarity(-2))
	require.NoError(t, err)

	seed := func(videoID string, texts ...string) {
		set := make([]*core.Chunk, len(texts))
		for i, text := range texts {
			vector, err := provider.Embedder().EmbedText(context.Background(), text)
			require.NoError(t, err)
			set[i] = &core.Chunk{
				Id:      core.IDFromContent(videoID + text),
				VideoID: videoID,
				Index:   i,
				Text:    text,
				Vector:  vector,
			}
		}
		require.NoError(t, chunks.ReplaceChunks(context.Background(), videoID, set))
	}

	return searcher, provider, seed
}

func TestFindSimilarReturnsSeededChunk(t *testing.T) {
	searcher, _, seed := setupSearcher(t)

	seed("vid-1",
		"the council approved the downtown rezoning application",
		"public comment focused on parking concerns")

	// The mock embedder is deterministic, so querying with a chunk's exact
	// text yields an identical vector and a top-ranked match.
	results, err := searcher.FindSimilar(context.Background(),
		"the council approved the downtown rezoning application", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "the council approved the downtown rezoning application", results[0].Chunk.Text)
	assert.Equal(t, "vid-1", results[0].Chunk.VideoID)
}

func TestFindSimilarVerbatimBoost(t *testing.T) {
	searcher, _, seed := setupSearcher(t)

	seed("vid-1", "budget hearing covered the road repaving schedule")

	withMatch, err := searcher.FindSimilar(context.Background(), "road repaving schedule", 5)
	require.NoError(t, err)
	require.NotEmpty(t, withMatch)

	withoutMatch, err := searcher.FindSimilar(context.Background(), "zoning variance appeal", 5)
	require.NoError(t, err)

	if len(withoutMatch) > 0 {
		assert.Greater(t, withMatch[0].Score, withoutMatch[0].Score)
	}
}

func TestFindSimilarRespectsLimit(t *testing.T) {
	searcher, _, seed := setupSearcher(t)

	seed("vid-1",
		"chunk one about transit", "chunk two about transit",
		"chunk three about transit", "chunk four about transit")

	results, err := searcher.FindSimilar(context.Background(), "transit", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestNewSearcherValidation(t *testing.T) {
	provider := mock.NewMockProvider()

	_, err := NewSearcher(nil, provider)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, _, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewSearcher(chunks, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
