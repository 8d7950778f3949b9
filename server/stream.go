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


package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/openclerk/openclerk/ingestion"
)

// frameBuffer bounds how far the run may outpace the subscriber before
// frames are dropped. Dropping keeps a stalled or vanished subscriber from
// ever blocking the run.
const frameBuffer = 256

// frame is one server-sent event on the progress stream.
type frame struct {
	event string
	data  any
}

// completePayload is the terminal frame carrying aggregate run counts.
type completePayload struct {
	Success    bool `json:"success"`
	Processed  int  `json:"processed"`
	Skipped    int  `json:"skipped"`
	Failed     int  `json:"failed"`
	NoCaptions int  `json:"noCaptions"`
}

// errorPayload is the terminal frame for a run that could not start.
type errorPayload struct {
	Error string `json:"error"`
}

// streamRun executes the trigger on a context detached from the request and
// relays progress frames as server-sent events. The stream always terminates
// with exactly one complete frame, or one error frame when the run could not
// start. A client disconnect mid-stream never cancels the run.
func (s *Server) streamRun(c *gin.Context, trigger ingestion.Trigger) {
	frames := make(chan frame, frameBuffer)

	// The run outlives the request connection.
	runCtx := context.WithoutCancel(c.Request.Context())
	go func() {
		defer close(frames)

		sink := ingestion.SinkFunc(func(event ingestion.ProgressEvent) {
			select {
			case frames <- frame{event: "progress", data: event}:
			default:
				s.logger.Warn("dropping progress frame, subscriber stalled",
					"videoId", event.VideoID, "step", event.Step)
			}
		})

		summary, err := s.pipeline.Run(runCtx, trigger, sink)
		if err != nil {
			// The run never started; there are no per-video results.
			frames <- frame{event: "error", data: errorPayload{Error: err.Error()}}
			return
		}
		frames <- frame{event: "complete", data: completePayload{
			Success:    summary.Failed == 0,
			Processed:  summary.Processed,
			Skipped:    summary.Skipped,
			Failed:     summary.Failed,
			NoCaptions: summary.NoCaptions,
		}}
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(200)
	c.Writer.Flush()

	// Drain every frame even after the client goes away so the run's sends
	// never block on a dead connection.
	clientGone := false
	for f := range frames {
		if clientGone {
			continue
		}
		if err := writeFrame(c, f); err != nil {
			clientGone = true
			s.logger.Info("subscriber disconnected, run continues")
		}
	}
}

func writeFrame(c *gin.Context, f frame) error {
	payload, err := json.Marshal(f.data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", f.event, payload); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
