// Package ingestion orchestrates the council-meeting recap pipeline.
//
// The Pipeline type runs one video, or a discovered batch of videos, through
// the full stage sequence: transcript acquisition, chunking, embedding,
// recap generation, and storage. It owns the meeting status state machine,
// emits ordered progress events to an EventSink, and aggregates per-video
// outcomes into a run summary.
//
// Videos within a batch are processed sequentially; only the embedding stage
// runs its per-chunk requests concurrently, through a bounded worker pool.
// A failure in one video never aborts the rest of the batch.
package ingestion
