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


// Package transcript acquires caption text for meeting videos.
//
// Acquisition distinguishes three outcomes: the transcript text, a terminal
// "no captions exist" classification, and a transient fetch failure. The
// primary path is a lightweight HTTP fetch of the caption track; if that is
// blocked, a heavier yt-dlp fallback is attempted before concluding error.
package transcript

import "context"

// Outcome classifies one acquisition attempt.
type Outcome int

const (
	// OutcomeAvailable means caption text was acquired.
	OutcomeAvailable Outcome = iota

	// OutcomeUnavailable means captions genuinely do not exist upstream.
	// This is terminal for the video, not an error.
	OutcomeUnavailable

	// OutcomeError means the fetch was blocked or failed transiently.
	// The video may succeed on a later trigger.
	OutcomeError
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeAvailable:
		return "available"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of transcript acquisition.
// Exactly one of Text or Err is meaningful, selected by Outcome.
type Result struct {
	Outcome Outcome

	// Text holds the plain transcript when Outcome is OutcomeAvailable.
	Text string

	// Err holds the transient failure when Outcome is OutcomeError.
	Err error
}

// Available builds a success result.
func Available(text string) Result {
	return Result{Outcome: OutcomeAvailable, Text: text}
}

// Unavailable builds a terminal no-captions result.
func Unavailable() Result {
	return Result{Outcome: OutcomeUnavailable}
}

// Error builds a transient failure result.
func Error(err error) Result {
	return Result{Outcome: OutcomeError, Err: err}
}

// Fetcher acquires the transcript for one video.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch acquires caption text for the given video ID. Failures are
	// reported through the Result's tag, never through a second return
	// value, so callers handle all three outcomes explicitly.
	Fetch(ctx context.Context, videoID string) Result
}
