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


package ingestion

// Step identifies one pipeline stage in a progress event.
type Step string

const (
	StepTranscript Step = "transcript"
	StepChunk      Step = "chunk"
	StepEmbeddings Step = "embeddings"
	StepRecap      Step = "recap"
	StepStore      Step = "store"
	StepDone       Step = "done"

	// StepSkip reports a video skipped without processing, such as a
	// duplicate trigger for a video already in flight.
	StepSkip Step = "skip"

	// StepNoCaptions reports the terminal no-captions classification.
	// It is expected, not an error.
	StepNoCaptions Step = "no_captions"

	// StepError reports a per-video failure. The batch continues.
	StepError Step = "error"
)

// ProgressEvent is one ordered message describing stage advancement for a
// specific video within a run.
type ProgressEvent struct {
	VideoID string `json:"videoId"`
	Step    Step   `json:"step"`
	Message string `json:"message"`

	// Current and Total carry per-chunk counters for the embedding stage.
	// Zero values mean the stage has no counter.
	Current int `json:"current,omitempty"`
	Total   int `json:"total,omitempty"`
}

// EventSink receives progress events in the order they are produced.
// Implementations must not block for long: a slow or disconnected subscriber
// must never stall the run. Publish is always called from the run's
// goroutine, never concurrently.
type EventSink interface {
	Publish(event ProgressEvent)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(event ProgressEvent)

// Publish calls the wrapped function.
func (f SinkFunc) Publish(event ProgressEvent) { f(event) }

// NopSink discards all events. Used when a run has no observer.
var NopSink EventSink = SinkFunc(func(ProgressEvent) {})
