package domain

import "context"

// Provider represents any LLM backend. Complete is the only mandatory
// capability; the rest are optional interfaces the dispatcher type-asserts,
// answering ErrUnsupported when a provider does not implement one.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Streamer is implemented by providers that support streaming completions.
// The returned channel delivers a finite, non-restartable sequence of chunks
// terminated by a Done chunk carrying the finish reason. Producers must stop
// when the context is cancelled.
type Streamer interface {
	Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error)
}

// Embedder is implemented by providers that can produce vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error)
}

// ImageGenerator is implemented by providers that can generate images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)
}
