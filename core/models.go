package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for transcript chunks.
// It is generated from chunk content using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MeetingStatus tracks a meeting through the ingestion lifecycle.
type MeetingStatus string

const (
	// StatusPending means the meeting has been registered but not yet picked up.
	StatusPending MeetingStatus = "pending"
	// StatusProcessing means a run currently owns the meeting.
	StatusProcessing MeetingStatus = "processing"
	// StatusCompleted means the meeting has a stored transcript, chunk set, and recap.
	StatusCompleted MeetingStatus = "completed"
	// StatusFailed means the last run hit a retryable error; ErrorMessage holds details.
	StatusFailed MeetingStatus = "failed"
	// StatusNoCaptions means the upstream video has no caption track at all.
	StatusNoCaptions MeetingStatus = "no_captions"
)

// StaleProcessingAfter is how long a meeting may sit in processing before a
// new trigger is allowed to reclaim it.
const StaleProcessingAfter = 15 * time.Minute

// CanTransition reports whether a status edge is part of the lifecycle.
// The only edges are pending→processing and processing→{completed, failed,
// no_captions}. Reprocessing re-enters through processing, which is allowed
// from any terminal status.
func CanTransition(from, to MeetingStatus) bool {
	switch to {
	case StatusProcessing:
		return from != StatusProcessing
	case StatusCompleted, StatusFailed, StatusNoCaptions:
		return from == StatusProcessing
	default:
		return false
	}
}

// Recap is the structured AI-generated summary of a council meeting.
type Recap struct {
	Summary        string   `json:"summary"`
	Article        string   `json:"article"`
	Topics         []string `json:"topics"`
	Decisions      []string `json:"decisions"`
	PublicComments []string `json:"publicComments"`
}

// IsZero reports whether no recap content has been generated yet.
func (r Recap) IsZero() bool {
	return r.Summary == "" && r.Article == "" &&
		len(r.Topics) == 0 && len(r.Decisions) == 0 && len(r.PublicComments) == 0
}

// Meeting is one ingestion record per source video, keyed by VideoID.
// It is owned by the pipeline and mutated only through status transitions.
type Meeting struct {
	VideoID      string        `json:"videoId"`
	Title        string        `json:"title"`
	MeetingDate  time.Time     `json:"meetingDate"`
	Status       MeetingStatus `json:"status"`
	Version      int           `json:"version"`
	Transcript   string        `json:"transcript,omitempty"`
	ChunkCount   int           `json:"chunkCount"`
	Recap        Recap         `json:"recap"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// StaleProcessing reports whether the meeting is stuck in processing past
// the reclaim window.
func (m *Meeting) StaleProcessing(now time.Time) bool {
	return m.Status == StatusProcessing && now.Sub(m.UpdatedAt) > StaleProcessingAfter
}

// HasRecap reports whether the meeting holds recap content that a new run
// would overwrite (and must therefore snapshot first).
func (m *Meeting) HasRecap() bool {
	return !m.Recap.IsZero()
}

// MeetingVersion is an immutable snapshot of a meeting's recap, keyed by
// (VideoID, Version). Snapshots are append-only: they are never updated or
// deleted in normal operation.
type MeetingVersion struct {
	VideoID   string    `json:"videoId"`
	Version   int       `json:"version"`
	Title     string    `json:"title"`
	Recap     Recap     `json:"recap"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chunk is a bounded, ordered slice of transcript text used as the
// embedding unit for semantic search.
type Chunk struct {
	Id      ID        `json:"id"`
	VideoID string    `json:"videoId"`
	Index   int       `json:"index"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"-"`
}

// FeedVideo is a live feed entry joined against persisted meeting state.
// It is computed per request and never persisted. A nil DBStatus means the
// video has never been seen before.
type FeedVideo struct {
	VideoID     string         `json:"videoId"`
	Title       string         `json:"title"`
	PublishedAt time.Time      `json:"publishedAt"`
	VideoURL    string         `json:"videoUrl"`
	DBStatus    *MeetingStatus `json:"dbStatus"`
}

// MeetingStats aggregates persisted meeting state for the dashboard.
type MeetingStats struct {
	TotalMeetings     int       `json:"totalMeetings"`
	CompletedCount    int       `json:"completedCount"`
	FailedCount       int       `json:"failedCount"`
	NoCaptionsCount   int       `json:"noCaptionsCount"`
	PendingCount      int       `json:"pendingCount"`
	LatestMeetingDate time.Time `json:"latestMeetingDate"`
}

// RunSummary aggregates per-video outcomes for one triggered run.
type RunSummary struct {
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	NoCaptions int `json:"noCaptions"`
}

// SearchResult is a chunk match from vector similarity search.
type SearchResult struct {
	Chunk *Chunk  `json:"chunk"`
	Score float32 `json:"score"`
}
