package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/ingestion"
	"github.com/openclerk/openclerk/storage"
)

// ingestRequest is the trigger request body. A zero VideoID runs full feed
// discovery; a set VideoID targets one video.
type ingestRequest struct {
	Force       bool   `json:"force"`
	VideoID     string `json:"videoId"`
	Mode        string `json:"mode"`
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt"`
}

func (r ingestRequest) toTrigger() (ingestion.Trigger, error) {
	trigger := ingestion.Trigger{
		Force:   r.Force,
		VideoID: r.VideoID,
		Mode:    ingestion.Mode(r.Mode),
		Title:   r.Title,
	}
	if r.PublishedAt != "" {
		published, err := time.Parse(time.RFC3339, r.PublishedAt)
		if err != nil {
			return trigger, errors.New("publishedAt must be RFC 3339")
		}
		trigger.PublishedAt = published
	}
	return trigger, trigger.Validate()
}

// handleIngest validates the trigger, then streams progress frames until the
// run completes. Validation failures respond synchronously; the stream is
// never opened for a request that cannot start.
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	trigger, err := req.toTrigger()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.streamRun(c, trigger)
}

// transcriptRequest supplies caption text directly, bypassing acquisition.
type transcriptRequest struct {
	Title       string `json:"title"`
	MeetingDate string `json:"meetingDate"`
	VideoID     string `json:"videoId"`
	Transcript  string `json:"transcript"`
}

// handleManualTranscript runs the pipeline synchronously over supplied text.
// Used when upstream captions are unavailable or need correction.
func (s *Server) handleManualTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	videoID := req.VideoID
	if videoID == "" {
		videoID = "manual-" + uuid.NewString()
	}

	trigger := ingestion.Trigger{
		VideoID:    videoID,
		Title:      req.Title,
		Transcript: req.Transcript,
	}
	if req.MeetingDate != "" {
		date, err := time.Parse("2006-01-02", req.MeetingDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meetingDate must be YYYY-MM-DD"})
			return
		}
		trigger.PublishedAt = date
	}
	if err := trigger.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The run must survive a client disconnect.
	summary, err := s.pipeline.Run(context.WithoutCancel(c.Request.Context()), trigger, ingestion.NopSink)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": summary.Failed == 0,
		"videoId": videoID,
		"summary": summary,
	})
}

// handleMeetings returns dashboard stats and recent meetings; with
// include=feed it additionally joins the live feed listing against
// persisted status.
func (s *Server) handleMeetings(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := s.meetings.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	recent, err := s.meetings.RecentMeetings(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	payload := gin.H{
		"stats":          stats,
		"recentMeetings": recent,
	}

	if c.Query("include") == "feed" {
		feedVideos, err := s.pipeline.FeedVideos(ctx)
		if err != nil {
			// The dashboard still renders persisted state when the live
			// feed is unreachable.
			s.logger.Warn("feed join failed", "err", err)
			payload["feedVideos"] = []core.FeedVideo{}
			payload["feedError"] = err.Error()
		} else {
			payload["feedVideos"] = feedVideos
		}
	}

	c.JSON(http.StatusOK, payload)
}

// handleListVersions returns the meeting's recap history, newest first.
// The live recap is not included.
func (s *Server) handleListVersions(c *gin.Context) {
	videoID := c.Param("videoId")

	if _, err := s.meetings.GetMeeting(c.Request.Context(), videoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	history, err := s.versions.ListVersions(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": history})
}

// restoreRequest selects the version to restore.
type restoreRequest struct {
	Version int `json:"version"`
}

func (s *Server) handleRestore(c *gin.Context) {
	videoID := c.Param("videoId")

	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Version < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be a positive integer"})
		return
	}

	meeting, err := s.versions.Restore(c.Request.Context(), videoID, req.Version)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
		case errors.Is(err, storage.ErrVersionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "version": meeting.Version})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.searcher.FindSimilar(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
