package ingestion

import "errors"

var (
	// ErrMeetingRepositoryRequired is returned when a meeting repository is not provided.
	ErrMeetingRepositoryRequired = errors.New("meeting repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrFetcherRequired is returned when a transcript fetcher is not provided.
	ErrFetcherRequired = errors.New("transcript fetcher required")

	// ErrDiscovererRequired is returned when a feed discoverer is not provided.
	ErrDiscovererRequired = errors.New("feed discoverer required")

	// ErrInvalidTrigger is returned when a trigger request fails validation.
	// No meeting state is touched.
	ErrInvalidTrigger = errors.New("invalid trigger")
)
