package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/ai/mock"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/feed"
	"github.com/openclerk/openclerk/retry"
	"github.com/openclerk/openclerk/storage"
	"github.com/openclerk/openclerk/storage/badger"
	"github.com/openclerk/openclerk/transcript"
)

// fakeDiscoverer serves a fixed feed listing.
type fakeDiscoverer struct {
	videos []feed.Video
	err    error
}

func (f *fakeDiscoverer) Discover(ctx context.Context) ([]feed.Video, error) {
	return f.videos, f.err
}

// fakeFetcher maps video IDs to canned acquisition results.
type fakeFetcher struct {
	results map[string]transcript.Result
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID string) transcript.Result {
	f.calls = append(f.calls, videoID)
	if r, ok := f.results[videoID]; ok {
		return r
	}
	return transcript.Error(fmt.Errorf("no canned result for %s", videoID))
}

// collectSink records events in publish order.
type collectSink struct {
	events []ProgressEvent
}

func (c *collectSink) Publish(event ProgressEvent) {
	c.events = append(c.events, event)
}

func (c *collectSink) steps(videoID string) []Step {
	var steps []Step
	for _, e := range c.events {
		if e.VideoID == videoID {
			steps = append(steps, e.Step)
		}
	}
	return steps
}

type fixture struct {
	pipeline   *Pipeline
	meetings   storage.MeetingRepository
	versions   storage.VersionRepository
	chunks     storage.ChunkRepository
	provider   ai.Provider
	fetcher    *fakeFetcher
	discoverer *fakeDiscoverer
}

func setupPipeline(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	meetings, versions, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider()
	fetcher := &fakeFetcher{results: map[string]transcript.Result{}}
	discoverer := &fakeDiscoverer{}

	opts = append([]Option{WithStaleAfter(core.StaleProcessingAfter)}, opts...)
	p, err := NewPipeline(meetings, chunks, provider, fetcher, discoverer, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return &fixture{
		pipeline:   p,
		meetings:   meetings,
		versions:   versions,
		chunks:     chunks,
		provider:   provider,
		fetcher:    fetcher,
		discoverer: discoverer,
	}
}

func feedVideo(id, title string) feed.Video {
	return feed.Video{
		VideoID:     id,
		Title:       title,
		PublishedAt: time.Date(2026, 3, 3, 19, 0, 0, 0, time.UTC),
		VideoURL:    "https://www.youtube.com/watch?v=" + id,
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	f.discoverer.videos = []feed.Video{
		feedVideo("vid-a", "Meeting A"),
		feedVideo("vid-b", "Meeting B"),
		feedVideo("vid-c", "Meeting C"),
	}
	f.fetcher.results["vid-a"] = transcript.Unavailable()
	f.fetcher.results["vid-b"] = transcript.Available("The council approved the budget. More discussion followed.")
	f.fetcher.results["vid-c"] = transcript.Available("The commission debated the rezoning application at length.")

	mp := f.provider.(*mock.MockProvider)
	mp.GetMockRecapper().GenerateRecapFunc = func(ctx context.Context, title, text string) (*ai.Recap, error) {
		if title == "Meeting C" {
			return nil, fmt.Errorf("%w: unexpected token", ai.ErrMalformedResponse)
		}
		return &ai.Recap{Summary: "Recap of " + title, Topics: []string{"budget"}}, nil
	}

	sink := &collectSink{}
	summary, err := f.pipeline.Run(ctx, Trigger{}, sink)
	require.NoError(t, err)

	assert.Equal(t, core.RunSummary{Processed: 1, Skipped: 0, Failed: 1, NoCaptions: 1}, summary)

	a, err := f.meetings.GetMeeting(ctx, "vid-a")
	require.NoError(t, err)
	assert.Equal(t, core.StatusNoCaptions, a.Status)

	b, err := f.meetings.GetMeeting(ctx, "vid-b")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, b.Status)
	assert.Equal(t, 1, b.Version)
	assert.NotEmpty(t, b.Transcript)
	assert.Greater(t, b.ChunkCount, 0)

	c, err := f.meetings.GetMeeting(ctx, "vid-c")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, c.Status)
	assert.Contains(t, c.ErrorMessage, "unparseable")
}

func TestRunEventOrdering(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	f.fetcher.results["vid-1"] = transcript.Available("Roll call was taken. The minutes were approved unanimously.")

	sink := &collectSink{}
	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1", Title: "Meeting"}, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	assert.Equal(t,
		[]Step{StepTranscript, StepChunk, StepEmbeddings, StepRecap, StepStore, StepDone},
		sink.steps("vid-1"))
}

func TestRunDuplicateTriggerIsNoOp(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	// Claim the video as an in-flight run would.
	claimed, err := f.meetings.BeginProcessing(ctx, "vid-1", "Meeting", time.Now(), core.StaleProcessingAfter)
	require.NoError(t, err)

	sink := &collectSink{}
	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1"}, sink)
	require.NoError(t, err)

	assert.Equal(t, core.RunSummary{Skipped: 1}, summary)
	assert.Equal(t, []Step{StepSkip}, sink.steps("vid-1"))
	assert.Empty(t, f.fetcher.calls)

	// The in-flight run's record is untouched.
	after, err := f.meetings.GetMeeting(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, after.Status)
	assert.Equal(t, claimed.Version, after.Version)
}

func TestRunStaleProcessingIsReclaimed(t *testing.T) {
	f := setupPipeline(t, WithStaleAfter(0))
	ctx := context.Background()

	_, err := f.meetings.BeginProcessing(ctx, "vid-1", "Meeting", time.Now(), core.StaleProcessingAfter)
	require.NoError(t, err)

	f.fetcher.results["vid-1"] = transcript.Available("The stuck run was superseded and this one completed.")

	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1"}, NopSink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	after, err := f.meetings.GetMeeting(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, after.Status)
}

func TestRunManualTranscript(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	sink := &collectSink{}
	summary, err := f.pipeline.Run(ctx, Trigger{
		Title:       "Special Session",
		PublishedAt: time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC),
		Transcript:  "The special session addressed the water main repairs downtown.",
	}, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	// Acquisition was bypassed entirely.
	assert.Empty(t, f.fetcher.calls)

	require.Len(t, sink.events, 6)
	videoID := sink.events[0].VideoID
	assert.NotEmpty(t, videoID)

	meeting, err := f.meetings.GetMeeting(ctx, videoID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, meeting.Status)
	assert.Equal(t, 1, meeting.Version)
	assert.Equal(t, "Special Session", meeting.Title)
	assert.Greater(t, meeting.ChunkCount, 0)

	active, err := f.chunks.ActiveChunks(ctx, videoID)
	require.NoError(t, err)
	assert.Len(t, active, meeting.ChunkCount)
}

func TestRunRecapOnlyReusesStoredArtifacts(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	f.fetcher.results["vid-1"] = transcript.Available("First pass transcript about the library bond measure.")

	_, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1", Title: "Meeting"}, NopSink)
	require.NoError(t, err)

	before, err := f.chunks.ActiveChunks(ctx, "vid-1")
	require.NoError(t, err)
	fetchCalls := len(f.fetcher.calls)

	sink := &collectSink{}
	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1", Mode: ModeRecapOnly}, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	// Skipped stages publish no events.
	assert.Equal(t, []Step{StepRecap, StepStore, StepDone}, sink.steps("vid-1"))

	// No new acquisition, chunk set untouched, version bumped with history.
	assert.Len(t, f.fetcher.calls, fetchCalls)

	after, err := f.chunks.ActiveChunks(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Id, after[i].Id)
	}

	meeting, err := f.meetings.GetMeeting(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, meeting.Version)
	assert.NotEmpty(t, meeting.Transcript)

	history, err := f.versions.ListVersions(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
}

func TestRunRecapOnlyWithoutStoredTranscript(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1", Mode: ModeRecapOnly}, NopSink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	meeting, err := f.meetings.GetMeeting(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, meeting.Status)
	assert.Contains(t, meeting.ErrorMessage, "stored transcript")
}

func TestRunEmbeddingFailureFailsVideo(t *testing.T) {
	f := setupPipeline(t, WithEmbedRetry(retry.Policy{
		MaxAttempts: 2,
		Sleeper:     func(ctx context.Context, d time.Duration) error { return nil },
	}))
	ctx := context.Background()

	f.fetcher.results["vid-1"] = transcript.Available("The transcript that cannot be embedded today.")

	mp := f.provider.(*mock.MockProvider)
	mp.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("rate limited")
	}

	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1", Title: "Meeting"}, NopSink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	meeting, err := f.meetings.GetMeeting(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, meeting.Status)

	// No partial chunk set became visible.
	active, err := f.chunks.ActiveChunks(ctx, "vid-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRunTransientFetchFailure(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	f.fetcher.results["vid-1"] = transcript.Error(errors.New("upstream blocked the request"))

	summary, err := f.pipeline.Run(ctx, Trigger{VideoID: "vid-1", Title: "Meeting"}, NopSink)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	meeting, err := f.meetings.GetMeeting(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, meeting.Status)
	assert.Contains(t, meeting.ErrorMessage, "blocked")
}

func TestRunDiscoverySkipsSettledMeetings(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	f.discoverer.videos = []feed.Video{
		feedVideo("vid-done", "Settled"),
		feedVideo("vid-new", "Fresh"),
	}
	f.fetcher.results["vid-done"] = transcript.Available("should not be fetched")
	f.fetcher.results["vid-new"] = transcript.Available("The new meeting covered the transit study.")

	// Settle vid-done first.
	_, err := f.meetings.BeginProcessing(ctx, "vid-done", "Settled", time.Now(), core.StaleProcessingAfter)
	require.NoError(t, err)
	_, err = f.meetings.CompleteRun(ctx, "vid-done", storage.RunUpdate{
		Transcript: "old", ChunkCount: 1,
		Recap: core.Recap{Summary: "done"},
	})
	require.NoError(t, err)

	summary, err := f.pipeline.Run(ctx, Trigger{}, NopSink)
	require.NoError(t, err)
	assert.Equal(t, core.RunSummary{Processed: 1, Skipped: 1}, summary)
	assert.Equal(t, []string{"vid-new"}, f.fetcher.calls)

	// Forced discovery reprocesses settled meetings too.
	summary, err = f.pipeline.Run(ctx, Trigger{Force: true}, NopSink)
	require.NoError(t, err)
	assert.Equal(t, core.RunSummary{Processed: 2}, summary)

	done, err := f.meetings.GetMeeting(ctx, "vid-done")
	require.NoError(t, err)
	assert.Equal(t, 2, done.Version)
}

func TestRunDiscoveryFailureAbortsStart(t *testing.T) {
	f := setupPipeline(t)

	f.discoverer.err = errors.New("feed unreachable")

	_, err := f.pipeline.Run(context.Background(), Trigger{}, NopSink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed discovery")
}

func TestTriggerValidate(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		wantErr bool
	}{
		{"discovery", Trigger{}, false},
		{"forced discovery", Trigger{Force: true}, false},
		{"targeted full", Trigger{VideoID: "v", Mode: ModeFull}, false},
		{"targeted default mode", Trigger{VideoID: "v"}, false},
		{"recap only", Trigger{VideoID: "v", Mode: ModeRecapOnly}, false},
		{"manual transcript", Trigger{Title: "t", Transcript: "text"}, false},
		{"unknown mode", Trigger{VideoID: "v", Mode: "both"}, true},
		{"recap only without video", Trigger{Mode: ModeRecapOnly}, true},
		{"blank transcript", Trigger{Title: "t", Transcript: "   "}, true},
		{"manual without title", Trigger{Transcript: "text"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTrigger)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPipelineValidation(t *testing.T) {
	meetings, _, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()
	fetcher := &fakeFetcher{}
	discoverer := &fakeDiscoverer{}

	_, err = NewPipeline(nil, chunks, provider, fetcher, discoverer)
	assert.ErrorIs(t, err, ErrMeetingRepositoryRequired)

	_, err = NewPipeline(meetings, nil, provider, fetcher, discoverer)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(meetings, chunks, nil, fetcher, discoverer)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(meetings, chunks, provider, nil, discoverer)
	assert.ErrorIs(t, err, ErrFetcherRequired)

	_, err = NewPipeline(meetings, chunks, provider, fetcher, nil)
	assert.ErrorIs(t, err, ErrDiscovererRequired)
}
