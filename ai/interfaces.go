package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RecapGenerator produces a structured meeting recap from a transcript.
// Implementations must be thread-safe for concurrent use.
type RecapGenerator interface {
	// GenerateRecap analyzes a meeting transcript and produces a structured
	// recap: a short summary, a longer plain-language article, and lists of
	// topics, decisions, and public comments.
	//
	// If the model's response cannot be parsed into a Recap, the returned
	// error wraps ErrMalformedResponse so callers can distinguish a bad
	// response from a transport failure.
	GenerateRecap(ctx context.Context, title, transcript string) (*Recap, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and RecapGenerator
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// RecapGenerator returns the recap generation service.
	// The returned RecapGenerator is safe for concurrent use.
	RecapGenerator() RecapGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
