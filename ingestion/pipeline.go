package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/chunker"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/feed"
	"github.com/openclerk/openclerk/retry"
	"github.com/openclerk/openclerk/storage"
	"github.com/openclerk/openclerk/transcript"
	"github.com/panjf2000/ants/v2"
)

// defaultEmbedWorkers bounds concurrent embedding requests to respect
// upstream rate limits.
const defaultEmbedWorkers = 5

// Pipeline orchestrates the ingestion and recap generation for meeting videos.
// It owns the meeting status state machine and is the only writer of meeting
// records.
type Pipeline struct {
	meetings   storage.MeetingRepository
	chunks     storage.ChunkRepository
	provider   ai.Provider
	fetcher    transcript.Fetcher
	discoverer feed.Discoverer
	chunker    *chunker.Chunker
	embedPool  *ants.Pool
	embedRetry retry.Policy
	staleAfter time.Duration
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding requests.
// Default is 5.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embedPool != nil {
			p.embedPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embedPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithStaleAfter sets the window after which a processing meeting is
// considered abandoned and may be reclaimed by a new trigger.
// Default is core.StaleProcessingAfter.
func WithStaleAfter(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.staleAfter = d
		return nil
	}
}

// WithEmbedRetry sets the retry policy applied to each per-chunk embedding
// request.
func WithEmbedRetry(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		p.embedRetry = policy
		return nil
	}
}

// WithChunker sets a custom transcript chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	meetings storage.MeetingRepository,
	chunks storage.ChunkRepository,
	provider ai.Provider,
	fetcher transcript.Fetcher,
	discoverer feed.Discoverer,
	opts ...Option,
) (*Pipeline, error) {
	if meetings == nil {
		return nil, ErrMeetingRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if discoverer == nil {
		return nil, ErrDiscovererRequired
	}

	pool, err := ants.NewPool(defaultEmbedWorkers)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		meetings:   meetings,
		chunks:     chunks,
		provider:   provider,
		fetcher:    fetcher,
		discoverer: discoverer,
		chunker:    chunker.New(),
		embedPool:  pool,
		embedRetry: retry.Policy{MaxAttempts: 3},
		staleAfter: core.StaleProcessingAfter,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// FeedVideos joins the live feed listing against persisted meeting state.
// A nil DBStatus means the video has never been seen before.
func (p *Pipeline) FeedVideos(ctx context.Context) ([]core.FeedVideo, error) {
	videos, err := p.discoverer.Discover(ctx)
	if err != nil {
		return nil, err
	}

	joined := make([]core.FeedVideo, 0, len(videos))
	for _, v := range videos {
		fv := core.FeedVideo{
			VideoID:     v.VideoID,
			Title:       v.Title,
			PublishedAt: v.PublishedAt,
			VideoURL:    v.VideoURL,
		}
		meeting, err := p.meetings.GetMeeting(ctx, v.VideoID)
		if err == nil {
			status := meeting.Status
			fv.DBStatus = &status
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		joined = append(joined, fv)
	}
	return joined, nil
}

// Release releases resources including the embedding worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}
