// Package server exposes the ingestion pipeline and meeting store over an
// HTTP API. The trigger endpoint streams progress frames over a single
// long-lived connection; a disconnecting subscriber never cancels the
// underlying run.
package server
