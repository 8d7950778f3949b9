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


// Package feed discovers candidate meeting videos from a channel's public
// Atom feed. Discovery is stateless: each call fetches the live listing,
// and callers join the result against persisted meeting state.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const feedURLFormat = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// Video is one entry from the channel feed.
type Video struct {
	VideoID     string
	Title       string
	PublishedAt time.Time
	VideoURL    string
}

// Discoverer fetches the channel's current video listing.
// Implementations must be safe for concurrent use.
type Discoverer interface {
	// Discover returns the feed's current entries, newest first.
	Discover(ctx context.Context) ([]Video, error)
}

// Client is a Discoverer backed by a channel Atom feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithFeedURL overrides the feed URL entirely. Useful for tests and for
// channels exposed through a proxy.
func WithFeedURL(url string) Option {
	return func(c *Client) {
		c.feedURL = url
	}
}

// NewClient creates a feed client for the given channel ID.
//
// Returns Discoverer interface to enforce abstraction.
func NewClient(channelID string, opts ...Option) Discoverer {
	c := &Client{
		feedURL:    fmt.Sprintf(feedURLFormat, channelID),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "feed"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// atomFeed mirrors the subset of the Atom schema the feed uses.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string   `xml:"videoId"`
	Title     string   `xml:"title"`
	Published string   `xml:"published"`
	Link      atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// Discover fetches and parses the channel feed, returning entries newest first.
func (c *Client) Discover(ctx context.Context) ([]Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	var parsed atomFeed
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	videos := make([]Video, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		if entry.VideoID == "" {
			continue
		}
		published, err := time.Parse(time.RFC3339, entry.Published)
		if err != nil {
			c.logger.Warn("skipping entry with unparseable date",
				"videoId", entry.VideoID, "published", entry.Published)
			continue
		}
		url := entry.Link.Href
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.VideoID
		}
		videos = append(videos, Video{
			VideoID:     entry.VideoID,
			Title:       entry.Title,
			PublishedAt: published,
			VideoURL:    url,
		})
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})

	c.logger.Debug("discovered feed videos", "count", len(videos))
	return videos, nil
}
