package storage

import (
	"context"
	"time"

	"github.com/openclerk/openclerk/core"
)

// RunUpdate carries the artifacts of a successful pipeline run into
// MeetingRepository.CompleteRun.
type RunUpdate struct {
	// Transcript is the full transcript text. Empty means keep the stored
	// transcript (recap_only runs).
	Transcript string

	// ChunkCount is the size of the chunk set written for this run.
	// Negative means keep the stored count (recap_only runs).
	ChunkCount int

	// Recap is the newly generated recap content.
	Recap core.Recap
}

// MeetingRepository provides operations for managing meeting records.
// Implementations must be thread-safe and support concurrent access.
type MeetingRepository interface {
	// PutMeeting inserts or updates a meeting record.
	// Sets CreatedAt on insert and UpdatedAt on every write.
	// Version is initialized to 1 when unset.
	PutMeeting(ctx context.Context, meeting *core.Meeting) (*core.Meeting, error)

	// GetMeeting retrieves a meeting by video id.
	// Returns ErrNotFound if the meeting doesn't exist.
	GetMeeting(ctx context.Context, videoID string) (*core.Meeting, error)

	// RecentMeetings retrieves up to limit meetings ordered by meeting date
	// descending.
	RecentMeetings(ctx context.Context, limit int) ([]*core.Meeting, error)

	// Stats aggregates counts by status and the latest meeting date.
	Stats(ctx context.Context) (*core.MeetingStats, error)

	// BeginProcessing atomically claims a meeting for a new run. It creates
	// the record if it doesn't exist yet (pending, version 1), then moves it
	// to processing. Returns ErrAlreadyProcessing if the meeting is
	// processing and its UpdatedAt is within staleAfter; a staler run is
	// reclaimed. Title and meetingDate fill in fields on newly created
	// records only.
	BeginProcessing(ctx context.Context, videoID, title string, meetingDate time.Time, staleAfter time.Duration) (*core.Meeting, error)

	// CompleteRun finishes a successful run: if the meeting already holds
	// recap content, that content is snapshotted as a MeetingVersion before
	// being overwritten and the version is incremented. Status becomes
	// completed and the error message is cleared. The snapshot and the
	// overwrite commit in one transaction.
	CompleteRun(ctx context.Context, videoID string, update RunUpdate) (*core.Meeting, error)

	// MarkFailed moves a processing meeting to failed with a message.
	MarkFailed(ctx context.Context, videoID, message string) error

	// MarkNoCaptions moves a processing meeting to no_captions.
	MarkNoCaptions(ctx context.Context, videoID string) error

	// Close releases repository resources.
	Close() error
}

// VersionRepository provides operations for the append-only recap history.
type VersionRepository interface {
	// ListVersions retrieves all snapshots for a meeting ordered by version
	// descending. The live recap is not included: snapshots exist only for
	// content that has been overwritten.
	ListVersions(ctx context.Context, videoID string) ([]*core.MeetingVersion, error)

	// GetVersion retrieves one snapshot.
	// Returns ErrVersionNotFound if it doesn't exist.
	GetVersion(ctx context.Context, videoID string, version int) (*core.MeetingVersion, error)

	// Restore makes a prior snapshot the meeting's current recap. The recap
	// being replaced is itself snapshotted first, then the meeting's version
	// is incremented, all in one transaction. History rows are never mutated
	// or deleted.
	Restore(ctx context.Context, videoID string, version int) (*core.Meeting, error)

	// Close releases repository resources.
	Close() error
}

// ChunkRepository provides operations for the searchable chunk corpus.
type ChunkRepository interface {
	// ReplaceChunks atomically replaces a meeting's chunk set. The new set
	// becomes visible to readers as a complete unit; until then readers see
	// the complete prior set (or nothing for a first run).
	ReplaceChunks(ctx context.Context, videoID string, chunks []*core.Chunk) error

	// ActiveChunks retrieves the currently visible chunk set for a meeting,
	// ordered by index. Returns an empty slice if no set has been published.
	ActiveChunks(ctx context.Context, videoID string) ([]*core.Chunk, error)

	// FindSimilar finds chunks similar to the given vector across all
	// meetings. Returns chunks with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases repository resources.
	Close() error
}
