package domain

import "time"

// CompletionRequest represents a unified LLM request.
// Model uses the explicit-provider convention "provider/model" when it enters
// the dispatcher; providers receive the bare model name.
type CompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Clone returns a shallow copy with its own message slice, so hooks can
// mutate a request without aliasing the caller's slice header.
func (r *CompletionRequest) Clone() *CompletionRequest {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Messages = make([]Message, len(r.Messages))
	copy(clone.Messages, r.Messages)
	return &clone
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// Choice is one generated alternative within a completion response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// CompletionResponse represents a unified LLM response.
type CompletionResponse struct {
	ID       string    `json:"id"`
	Model    string    `json:"model"`
	Provider string    `json:"provider"`
	Created  time.Time `json:"created"`
	Choices  []Choice  `json:"choices"`
	Usage    Usage     `json:"usage"`
}

// Text returns the content of the first choice, or "" if there is none.
func (r *CompletionResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// SetText replaces the content of the first choice. No-op if there is none.
func (r *CompletionResponse) SetText(content string) {
	if r == nil || len(r.Choices) == 0 {
		return
	}
	r.Choices[0].Message.Content = content
}

// StreamChunk represents a single streaming response chunk.
// The final chunk carries Done=true and the finish reason.
type StreamChunk struct {
	Delta        string `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
	Done         bool   `json:"done"`
	Error        error  `json:"error,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage with the total derived from its parts, keeping the
// total == prompt + completion invariant.
func NewUsage(promptTokens, completionTokens int) Usage {
	return Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// EmbeddingRequest represents a request for vector embeddings.
type EmbeddingRequest struct {
	Model  string   `json:"model"`
	Inputs []string `json:"inputs"`
}

// EmbeddingResponse carries one embedding per input, in input order.
type EmbeddingResponse struct {
	Model      string      `json:"model"`
	Provider   string      `json:"provider"`
	Embeddings [][]float64 `json:"embeddings"`
	Usage      Usage       `json:"usage"`
}

// ImageRequest represents an image generation request.
type ImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// GeneratedImage is a single generated image, delivered by URL or inline.
type GeneratedImage struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// ImageResponse carries the generated images.
type ImageResponse struct {
	Provider string           `json:"provider"`
	Created  time.Time        `json:"created"`
	Images   []GeneratedImage `json:"images"`
}
