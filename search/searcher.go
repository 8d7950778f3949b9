package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage"
)

// defaultMinSimilarity filters out weak vector matches before boosting.
const defaultMinSimilarity = 0.60

// Searcher provides semantic search over meeting transcript chunks.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	minSimilarity   float32
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity threshold for vector matches.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a searcher over the chunk corpus.
func NewSearcher(chunkRepository storage.ChunkRepository, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		embedder:        provider.Embedder(),
		minSimilarity:   defaultMinSimilarity,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for transcript chunks relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Over-fetch so the verbatim boost can reorder before trimming.
	matches, err := s.chunkRepository.FindSimilar(ctx, embedding, s.minSimilarity, maxHits*2)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		if hasVerbatimMatch(match.Chunk.Text, query) {
			score += 0.3
		}
		results = append(results, &core.SearchResult{
			Chunk: match.Chunk,
			Score: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}

	s.logger.Debug("search complete", "query", query, "hits", len(results))
	return results, nil
}
