package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports re-embedding progress in terms of meetings.
// Each meeting's chunk set is swapped in as a single new generation, so
// the tracker prints a line whenever a generation goes live, plus
// interval reports while a large meeting's chunks are still in flight.
type ProgressTracker struct {
	writer         io.Writer
	meetingsTotal  int
	chunksTotal    int
	reportInterval int

	mu           sync.Mutex
	started      bool
	startTime    time.Time
	meetingsDone int
	chunksDone   int
	sinceReport  int
}

// NewProgressTracker creates a tracker over a corpus of meetingsTotal
// meetings holding chunksTotal chunks. Interval reports fire every
// reportInterval embedded chunks.
func NewProgressTracker(writer io.Writer, meetingsTotal, chunksTotal, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		writer:         writer,
		meetingsTotal:  meetingsTotal,
		chunksTotal:    chunksTotal,
		reportInterval: reportInterval,
	}
}

// Start begins tracking. Updates before Start are ignored.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = true
	p.startTime = time.Now()
	p.meetingsDone = 0
	p.chunksDone = 0
	p.sinceReport = 0
}

// ChunksEmbedded records delta chunks receiving fresh vectors inside the
// current meeting. These vectors are not live yet; they go live when the
// meeting's generation is swapped in.
func (p *ProgressTracker) ChunksEmbedded(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.chunksDone += delta
	if p.chunksDone > p.chunksTotal {
		p.chunksDone = p.chunksTotal
	}
	p.sinceReport += delta
	if p.sinceReport >= p.reportInterval {
		p.report()
		p.sinceReport = 0
	}
}

// MeetingLive records that a meeting's replacement generation was swapped
// in and prints a per-meeting line.
func (p *ProgressTracker) MeetingLive(videoID string, chunkCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.meetingsDone++
	fmt.Fprintf(p.writer, "%s: new generation live (%d chunks) [meeting %d/%d]\n",
		videoID, chunkCount, p.meetingsDone, p.meetingsTotal)
	p.sinceReport = 0
}

// Finish prints a final report.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints chunk-level progress. Must be called with the lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.chunksDone) / elapsed.Seconds()

	percentage := 0.0
	if p.chunksTotal > 0 {
		percentage = float64(p.chunksDone) / float64(p.chunksTotal) * 100.0
	}

	fmt.Fprintf(p.writer, "  %d/%d chunks (%.1f%%) across %d/%d meetings - %.1f chunks/s\n",
		p.chunksDone, p.chunksTotal, percentage, p.meetingsDone, p.meetingsTotal, rate)
}
