package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>City Council</title>
  <entry>
    <id>yt:video:abc123def45</id>
    <yt:videoId>abc123def45</yt:videoId>
    <title>City Council Meeting - March 3, 2026</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123def45"/>
    <published>2026-03-03T19:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:xyz987uvw65</id>
    <yt:videoId>xyz987uvw65</yt:videoId>
    <title>Planning Commission - February 24, 2026</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=xyz987uvw65"/>
    <published>2026-02-24T18:30:00+00:00</published>
  </entry>
</feed>`

func TestDiscoverParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client := NewClient("ignored", WithFeedURL(srv.URL))

	videos, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "abc123def45", videos[0].VideoID)
	assert.Equal(t, "City Council Meeting - March 3, 2026", videos[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123def45", videos[0].VideoURL)
	assert.Equal(t, 2026, videos[0].PublishedAt.Year())

	// Newest first.
	assert.True(t, videos[0].PublishedAt.After(videos[1].PublishedAt))
}

func TestDiscoverSkipsMalformedEntries(t *testing.T) {
	badFeed := `<?xml version="1.0"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>good1234567</yt:videoId>
    <title>Good entry</title>
    <published>2026-01-10T10:00:00+00:00</published>
  </entry>
  <entry>
    <yt:videoId>bad98765432</yt:videoId>
    <title>Bad date</title>
    <published>not-a-date</published>
  </entry>
</feed>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(badFeed))
	}))
	defer srv.Close()

	client := NewClient("ignored", WithFeedURL(srv.URL))

	videos, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "good1234567", videos[0].VideoID)

	// Missing link falls back to the canonical watch URL.
	assert.Equal(t, "https://www.youtube.com/watch?v=good1234567", videos[0].VideoURL)
}

func TestDiscoverUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("ignored", WithFeedURL(srv.URL))

	_, err := client.Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
