package badger

import (
	"context"
	"testing"
	"time"

	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completeRun is a helper that claims and completes one run with the given
// recap summary.
func completeRun(t *testing.T, meetings storage.MeetingRepository, videoID, summary string) *core.Meeting {
	t.Helper()
	ctx := context.Background()
	_, err := meetings.BeginProcessing(ctx, videoID, "Council Session", time.Now().UTC(), core.StaleProcessingAfter)
	require.NoError(t, err)
	completed, err := meetings.CompleteRun(ctx, videoID, storage.RunUpdate{
		Transcript: "transcript for " + summary,
		ChunkCount: 2,
		Recap:      core.Recap{Summary: summary},
	})
	require.NoError(t, err)
	return completed
}

func TestListVersionsNewestFirst(t *testing.T) {
	meetings, versions, _ := setupRepositories(t)
	ctx := context.Background()

	completeRun(t, meetings, "vid-1", "recap one")
	completeRun(t, meetings, "vid-1", "recap two")
	completeRun(t, meetings, "vid-1", "recap three")

	history, err := versions.ListVersions(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, "recap two", history[0].Recap.Summary)
	assert.Equal(t, 1, history[1].Version)
	assert.Equal(t, "recap one", history[1].Recap.Summary)
}

func TestGetVersionNotFound(t *testing.T) {
	meetings, versions, _ := setupRepositories(t)
	ctx := context.Background()

	completeRun(t, meetings, "vid-1", "recap one")

	_, err := versions.GetVersion(ctx, "vid-1", 7)
	assert.ErrorIs(t, err, storage.ErrVersionNotFound)
}

func TestRestoreRoundTrip(t *testing.T) {
	meetings, versions, _ := setupRepositories(t)
	ctx := context.Background()

	completeRun(t, meetings, "vid-1", "recap one")
	completeRun(t, meetings, "vid-1", "recap two")
	current := completeRun(t, meetings, "vid-1", "recap three")
	require.Equal(t, 3, current.Version)

	// Restoring version 1 bumps to version 4 with version 1's content and
	// snapshots the replaced version-3 content.
	restored, err := versions.Restore(ctx, "vid-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Version)
	assert.Equal(t, "recap one", restored.Recap.Summary)

	snapshot, err := versions.GetVersion(ctx, "vid-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "recap three", snapshot.Recap.Summary)

	// Restoring back recovers the pre-restore content at version 5.
	restored, err = versions.Restore(ctx, "vid-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Version)
	assert.Equal(t, "recap three", restored.Recap.Summary)

	// History only ever grows.
	history, err := versions.ListVersions(ctx, "vid-1")
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestRestoreUnknownMeeting(t *testing.T) {
	_, versions, _ := setupRepositories(t)

	_, err := versions.Restore(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRestoreUnknownVersion(t *testing.T) {
	meetings, versions, _ := setupRepositories(t)

	completeRun(t, meetings, "vid-1", "recap one")

	_, err := versions.Restore(context.Background(), "vid-1", 9)
	assert.ErrorIs(t, err, storage.ErrVersionNotFound)
}
