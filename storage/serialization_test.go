package storage

import (
	"testing"
	"time"

	"github.com/openclerk/openclerk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	meeting := &core.Meeting{
		VideoID:     "dQw4w9WgXcQ",
		Title:       "City Council Regular Session",
		MeetingDate: now,
		Status:      core.StatusCompleted,
		Version:     3,
		Transcript:  "the meeting was called to order",
		ChunkCount:  12,
		Recap: core.Recap{
			Summary:        "Council approved the transit levy.",
			Article:        "At Tuesday's session the council...",
			Topics:         []string{"transit", "budget"},
			Decisions:      []string{"Levy approved 6-1"},
			PublicComments: []string{"Resident opposed the levy"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := MarshalMeeting(meeting)
	require.NoError(t, err)

	got, err := UnmarshalMeeting(data)
	require.NoError(t, err)
	assert.Equal(t, meeting, got)
}

func TestChunkRoundTripKeepsVector(t *testing.T) {
	chunk := &core.Chunk{
		Id:      core.IDFromContent("roll call was taken"),
		VideoID: "dQw4w9WgXcQ",
		Index:   4,
		Text:    "roll call was taken",
		Vector:  []float32{0.25, -0.5, 0.125},
	}

	data, err := MarshalChunk(chunk)
	require.NoError(t, err)

	got, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
	assert.Equal(t, chunk.Vector, got.Vector)
}

func TestVersionRoundTrip(t *testing.T) {
	version := &core.MeetingVersion{
		VideoID:   "dQw4w9WgXcQ",
		Version:   2,
		Title:     "City Council Regular Session",
		Recap:     core.Recap{Summary: "prior recap"},
		CreatedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := MarshalVersion(version)
	require.NoError(t, err)

	got, err := UnmarshalVersion(data)
	require.NoError(t, err)
	assert.Equal(t, version, got)
}

func TestUnmarshalMeetingMalformed(t *testing.T) {
	// A length prefix pointing past the end of the buffer.
	_, err := UnmarshalMeeting([]byte{0xff, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalMeetingTruncated(t *testing.T) {
	full, err := MarshalMeeting(&core.Meeting{
		VideoID: "dQw4w9WgXcQ",
		Title:   "City Council Regular Session",
	})
	require.NoError(t, err)

	_, err = UnmarshalMeeting(full[:len(full)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
