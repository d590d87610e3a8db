// Package mockapi simulates an external LLM API behind the provider
// contract: it requires a credential, honors request options, and returns
// deterministic canned responses. Useful for exercising the full dispatch
// path without network access.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

const (
	providerName       = "mock_api"
	embeddingDimension = 64
	defaultMaxTokens   = 100
)

// Provider implements the provider contract with simulated responses.
type Provider struct {
	name   string
	config Config
}

// NewProvider creates a new mock API provider.
func NewProvider(config Config) *Provider {
	return &Provider{
		name:   providerName,
		config: config,
	}
}

// Complete returns a simulated API response. It fails like a real backend
// would when no API key is configured or the message list is empty.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if p.config.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("simulating API call",
		observability.String("base_url", p.config.BaseURL))

	userMessage := lastUserMessage(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	content := cannedResponse(userMessage)
	if words := strings.Fields(content); len(words) > maxTokens {
		content = strings.Join(words[:maxTokens], " ")
	}

	promptTokens := 0
	for _, msg := range req.Messages {
		promptTokens += len(strings.Fields(msg.Content))
	}

	return &domain.CompletionResponse{
		ID:       "mock-" + uuid.New().String(),
		Model:    req.Model,
		Provider: p.name,
		Created:  time.Now(),
		Choices: []domain.Choice{
			{
				Index:        0,
				Message:      domain.Message{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: domain.NewUsage(promptTokens, len(strings.Fields(content))),
	}, nil
}

// Embed returns deterministic pseudo-embeddings derived from the input text,
// so the same input always produces the same vector.
func (p *Provider) Embed(ctx context.Context, req *domain.EmbeddingRequest) (*domain.EmbeddingResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if p.config.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	if len(req.Inputs) == 0 {
		return nil, errors.New("inputs cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("simulating embedding call",
		observability.Int("inputs", len(req.Inputs)))

	embeddings := make([][]float64, len(req.Inputs))
	promptTokens := 0
	for i, input := range req.Inputs {
		embeddings[i] = pseudoEmbedding(input)
		promptTokens += len(strings.Fields(input))
	}

	return &domain.EmbeddingResponse{
		Model:      req.Model,
		Provider:   p.name,
		Embeddings: embeddings,
		Usage:      domain.NewUsage(promptTokens, 0),
	}, nil
}

// GenerateImage returns a placeholder image URL for the prompt.
func (p *Provider) GenerateImage(ctx context.Context, req *domain.ImageRequest) (*domain.ImageResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if p.config.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	if req.Prompt == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	count := req.Count
	if count <= 0 {
		count = 1
	}

	logger := observability.FromContext(ctx)
	logger.Debug("simulating image generation",
		observability.Int("count", count))

	images := make([]domain.GeneratedImage, count)
	for i := range images {
		images[i] = domain.GeneratedImage{
			URL: fmt.Sprintf("%s/images/%s-%d.png", p.config.BaseURL, promptSlug(req.Prompt), i),
		}
	}

	return &domain.ImageResponse{
		Provider: p.name,
		Created:  time.Now(),
		Images:   images,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

func lastUserMessage(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// cannedResponse picks a simulated answer based on the user's message.
func cannedResponse(userMessage string) string {
	lower := strings.ToLower(userMessage)

	switch {
	case userMessage == "":
		return "I did not receive a message to respond to."
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! This is a simulated response from the mock API."
	case strings.HasSuffix(strings.TrimSpace(userMessage), "?"):
		return fmt.Sprintf("That is an interesting question about %q. This simulated answer stands in for a real model's.", userMessage)
	default:
		return fmt.Sprintf("Simulated response to: %s", userMessage)
	}
}

// pseudoEmbedding derives a fixed-dimension vector from the input via FNV
// hashing. Values land in [-1, 1).
func pseudoEmbedding(input string) []float64 {
	vector := make([]float64, embeddingDimension)
	for i := range vector {
		h := fnv.New64a()
		fmt.Fprintf(h, "%d:%s", i, input)
		vector[i] = float64(int64(h.Sum64())) / float64(1<<63)
	}
	return vector
}

func promptSlug(prompt string) string {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return fmt.Sprintf("%08x", h.Sum32())
}
