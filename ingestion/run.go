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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage"
	"github.com/openclerk/openclerk/transcript"
)

// Mode selects how much of the pipeline a run executes.
type Mode string

const (
	// ModeFull runs transcript, chunk, embed, recap, and store.
	ModeFull Mode = "full"

	// ModeRecapOnly reuses the stored transcript and chunk set, regenerating
	// only the recap. Fails if no prior transcript exists.
	ModeRecapOnly Mode = "recap_only"
)

// Trigger describes one requested run. A zero VideoID means full feed
// discovery over all new and eligible videos; a set VideoID targets a
// single video.
type Trigger struct {
	// Force includes feed videos that already reached a terminal status.
	// Only meaningful for discovery runs.
	Force bool

	// VideoID targets one video directly.
	VideoID string

	// Mode selects full reprocessing or recap regeneration.
	// Defaults to full. Only meaningful for targeted runs.
	Mode Mode

	// Title and PublishedAt fill in metadata for videos not present in the
	// feed, such as manual retries of older meetings.
	Title       string
	PublishedAt time.Time

	// Transcript supplies caption text directly, bypassing acquisition.
	// When set with an empty VideoID, a synthetic video ID is generated.
	Transcript string
}

// Validate checks trigger shape before any meeting state is touched.
func (t Trigger) Validate() error {
	switch t.Mode {
	case "", ModeFull, ModeRecapOnly:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidTrigger, t.Mode)
	}
	if t.Mode == ModeRecapOnly && t.VideoID == "" {
		return fmt.Errorf("%w: recap_only requires a video id", ErrInvalidTrigger)
	}
	if t.Transcript != "" && strings.TrimSpace(t.Transcript) == "" {
		return fmt.Errorf("%w: transcript is blank", ErrInvalidTrigger)
	}
	if t.Transcript != "" && t.Title == "" {
		return fmt.Errorf("%w: manual transcript requires a title", ErrInvalidTrigger)
	}
	if t.VideoID == "" && t.Mode != "" && t.Transcript == "" {
		return fmt.Errorf("%w: mode requires a video id", ErrInvalidTrigger)
	}
	return nil
}

// candidate is one video queued for processing within a run.
type candidate struct {
	videoID     string
	title       string
	publishedAt time.Time
	mode        Mode
	manual      string
}

// outcome classifies one video's terminal result within a run.
type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeNoCaptions
)

// Run executes one triggered run to completion and returns the aggregate
// summary. Videos are processed sequentially; a failure in one video is
// recorded and the batch continues. The returned error is non-nil only when
// the run could not start at all (invalid trigger or feed discovery failure).
//
// Events are published to sink in stage order per video, never interleaved
// across videos. Pass NopSink when no observer is attached.
func (p *Pipeline) Run(ctx context.Context, trigger Trigger, sink EventSink) (core.RunSummary, error) {
	var summary core.RunSummary

	if sink == nil {
		sink = NopSink
	}
	if err := trigger.Validate(); err != nil {
		return summary, err
	}

	candidates, err := p.resolveCandidates(ctx, trigger, &summary)
	if err != nil {
		return summary, err
	}

	p.logger.Info("starting run", "candidates", len(candidates), "force", trigger.Force)

	for _, cand := range candidates {
		switch p.processVideo(ctx, cand, sink) {
		case outcomeProcessed:
			summary.Processed++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		case outcomeNoCaptions:
			summary.NoCaptions++
		}
	}

	p.logger.Info("run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"noCaptions", summary.NoCaptions)
	return summary, nil
}

// resolveCandidates expands a trigger into the ordered list of videos to
// process. Discovery runs skip videos already in a terminal or active state
// unless forced; skips are counted up front.
func (p *Pipeline) resolveCandidates(ctx context.Context, trigger Trigger, summary *core.RunSummary) ([]candidate, error) {
	if trigger.VideoID != "" || trigger.Transcript != "" {
		videoID := trigger.VideoID
		if videoID == "" {
			videoID = "manual-" + uuid.NewString()
		}
		mode := trigger.Mode
		if mode == "" {
			mode = ModeFull
		}
		return []candidate{{
			videoID:     videoID,
			title:       trigger.Title,
			publishedAt: trigger.PublishedAt,
			mode:        mode,
			manual:      trigger.Transcript,
		}}, nil
	}

	videos, err := p.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed discovery: %w", err)
	}

	candidates := make([]candidate, 0, len(videos))
	for _, v := range videos {
		if !trigger.Force {
			meeting, err := p.meetings.GetMeeting(ctx, v.VideoID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			if meeting != nil && !eligible(meeting) {
				summary.Skipped++
				continue
			}
		}
		candidates = append(candidates, candidate{
			videoID:     v.VideoID,
			title:       v.Title,
			publishedAt: v.PublishedAt,
			mode:        ModeFull,
		})
	}
	return candidates, nil
}

// eligible reports whether an unforced discovery run should process a video
// that already has a meeting record. Completed and no-captions meetings are
// settled; failed and pending ones are retried. Processing meetings pass
// through so the status-level stale check decides.
func eligible(meeting *core.Meeting) bool {
	switch meeting.Status {
	case core.StatusCompleted, core.StatusNoCaptions:
		return false
	default:
		return true
	}
}

// processVideo runs one video through the stage sequence. All stage failures
// are absorbed here: they become a status write plus an error event, never a
// returned error, so the batch continues.
func (p *Pipeline) processVideo(ctx context.Context, cand candidate, sink EventSink) outcome {
	logger := p.logger.With("videoId", cand.videoID, "mode", cand.mode)

	meeting, err := p.meetings.BeginProcessing(ctx, cand.videoID, cand.title, cand.publishedAt, p.staleAfter)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyProcessing) {
			logger.Info("run already in flight, skipping")
			sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepSkip,
				Message: "already processing, skipped"})
			return outcomeSkipped
		}
		logger.Error("failed to claim meeting", "err", err)
		sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepError, Message: err.Error()})
		return outcomeFailed
	}

	text, oc := p.acquireTranscript(ctx, cand, meeting, sink)
	if oc != outcomeProcessed {
		return oc
	}

	var chunkSet []core.Chunk
	chunkCount := -1

	if cand.mode == ModeFull {
		// Stage: chunk
		sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepChunk,
			Message: "splitting transcript"})

		chunkSet, err = p.chunker.Split(cand.videoID, text)
		if err != nil {
			return p.fail(ctx, cand.videoID, sink, fmt.Errorf("chunking transcript: %w", err))
		}
		chunkCount = len(chunkSet)

		// Stage: embeddings
		sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepEmbeddings,
			Message: "generating embeddings", Total: len(chunkSet)})

		if err := p.embedChunks(ctx, chunkSet); err != nil {
			return p.fail(ctx, cand.videoID, sink, fmt.Errorf("embedding chunks: %w", err))
		}
	}

	// Stage: recap
	sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepRecap,
		Message: "generating recap"})

	title := meeting.Title
	if title == "" {
		title = cand.title
	}
	recap, err := p.provider.RecapGenerator().GenerateRecap(ctx, title, text)
	if err != nil {
		if errors.Is(err, ai.ErrMalformedResponse) {
			err = fmt.Errorf("recap response unparseable: %w", err)
		} else {
			err = fmt.Errorf("recap generation: %w", err)
		}
		return p.fail(ctx, cand.videoID, sink, err)
	}

	// Stage: store
	sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepStore,
		Message: "storing results"})

	if cand.mode == ModeFull {
		refs := make([]*core.Chunk, len(chunkSet))
		for i := range chunkSet {
			refs[i] = &chunkSet[i]
		}
		if err := p.chunks.ReplaceChunks(ctx, cand.videoID, refs); err != nil {
			return p.fail(ctx, cand.videoID, sink, fmt.Errorf("storing chunks: %w", err))
		}
	}

	update := storage.RunUpdate{
		ChunkCount: chunkCount,
		Recap: core.Recap{
			Summary:        recap.Summary,
			Article:        recap.Article,
			Topics:         recap.Topics,
			Decisions:      recap.Decisions,
			PublicComments: recap.PublicComments,
		},
	}
	if cand.mode == ModeFull {
		update.Transcript = text
	}
	if _, err := p.meetings.CompleteRun(ctx, cand.videoID, update); err != nil {
		return p.fail(ctx, cand.videoID, sink, fmt.Errorf("completing run: %w", err))
	}

	sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepDone, Message: "completed"})
	logger.Info("video processed", "chunks", chunkCount)
	return outcomeProcessed
}

// acquireTranscript resolves the transcript text for one candidate: manual
// supply, the stored transcript for recap_only runs, or live acquisition.
// Returns outcomeProcessed with the text on success; any other outcome is
// terminal for the video and has already been recorded and published.
// Only the paths that resolve a transcript publish a transcript event, so
// recap_only runs stream recap, store, done.
func (p *Pipeline) acquireTranscript(ctx context.Context, cand candidate, meeting *core.Meeting, sink EventSink) (string, outcome) {
	if cand.manual != "" {
		sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepTranscript,
			Message: "using supplied transcript"})
		return cand.manual, outcomeProcessed
	}

	if cand.mode == ModeRecapOnly {
		if meeting.Transcript == "" {
			oc := p.fail(ctx, cand.videoID, sink,
				errors.New("recap_only requires a previously stored transcript"))
			return "", oc
		}
		return meeting.Transcript, outcomeProcessed
	}

	sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepTranscript,
		Message: "acquiring transcript"})

	result := p.fetcher.Fetch(ctx, cand.videoID)
	switch result.Outcome {
	case transcript.OutcomeAvailable:
		return result.Text, outcomeProcessed

	case transcript.OutcomeUnavailable:
		if err := p.meetings.MarkNoCaptions(ctx, cand.videoID); err != nil {
			p.logger.Error("failed to mark no_captions", "videoId", cand.videoID, "err", err)
		}
		sink.Publish(ProgressEvent{VideoID: cand.videoID, Step: StepNoCaptions,
			Message: "no captions available"})
		return "", outcomeNoCaptions

	default:
		oc := p.fail(ctx, cand.videoID, sink,
			fmt.Errorf("transcript fetch: %w", result.Err))
		return "", oc
	}
}

// embedChunks fills in vectors for the chunk set, running per-chunk requests
// through the bounded worker pool. Each chunk is retried per the pipeline's
// retry policy; any chunk still failing fails the whole set.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	embedder := p.provider.Embedder()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := range chunks {
		i := i
		wg.Add(1)
		submitErr := p.embedPool.Submit(func() {
			defer wg.Done()

			mu.Lock()
			aborted := firstErr != nil
			mu.Unlock()
			if aborted {
				return
			}

			err := p.embedRetry.Do(ctx, func(ctx context.Context) error {
				vector, err := embedder.EmbedText(ctx, chunks[i].Text)
				if err != nil {
					return err
				}
				chunks[i].Vector = vector
				return nil
			})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d: %w", chunks[i].Index, err)
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	return firstErr
}

// fail records a per-video failure and publishes the error event.
func (p *Pipeline) fail(ctx context.Context, videoID string, sink EventSink, err error) outcome {
	p.logger.Error("video failed", "videoId", videoID, "err", err)
	if markErr := p.meetings.MarkFailed(ctx, videoID, err.Error()); markErr != nil {
		p.logger.Error("failed to mark meeting failed", "videoId", videoID, "err", markErr)
	}
	sink.Publish(ProgressEvent{VideoID: videoID, Step: StepError, Message: err.Error()})
	return outcomeFailed
}
