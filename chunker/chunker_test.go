package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyTranscript(t *testing.T) {
	c := New()

	chunks, err := c.Split("vid-1", "   \n\t  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortTranscript(t *testing.T) {
	c := New()

	chunks, err := c.Split("vid-1", "The council approved the budget.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "vid-1", chunks[0].VideoID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "The council approved the budget.", chunks[0].Text)
	assert.NotZero(t, chunks[0].Id)
	assert.Nil(t, chunks[0].Vector)
}

func TestSplitLongTranscript(t *testing.T) {
	c := New(WithChunkSize(200), WithChunkOverlap(20))

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("The planning commission discussed the rezoning application at length. ")
	}

	chunks, err := c.Split("vid-2", b.String())
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "vid-2", ch.VideoID)
		assert.NotEmpty(t, ch.Text)
		assert.LessOrEqual(t, len(ch.Text), 250)
	}
}

func TestSplitDeterministicIDs(t *testing.T) {
	c := New()

	a, err := c.Split("vid-3", "Same transcript text.")
	require.NoError(t, err)
	b, err := c.Split("vid-3", "Same transcript text.")
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Id, b[0].Id)

	// Same text under a different video yields a different chunk ID.
	other, err := c.Split("vid-4", "Same transcript text.")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.NotEqual(t, a[0].Id, other[0].Id)
}
