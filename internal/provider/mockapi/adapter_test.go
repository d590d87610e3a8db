package mockapi_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/provider/mockapi"
)

func testProvider() *mockapi.Provider {
	return mockapi.NewProvider(mockapi.Config{
		APIKey:  "mock-key",
		BaseURL: "https://api.example.com/v1",
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("should answer greetings with the greeting response", func(t *testing.T) {
		resp, err := testProvider().Complete(ctx, &domain.CompletionRequest{
			Model:    "mock-model",
			Messages: []domain.Message{{Role: "user", Content: "Hello there"}},
		})

		require.NoError(t, err)
		require.Equal(t, "mock_api", resp.Provider)
		require.Contains(t, resp.Text(), "Hello!")
		require.Equal(t, "stop", resp.Choices[0].FinishReason)
		require.True(t, strings.HasPrefix(resp.ID, "mock-"))
	})

	t.Run("should answer questions with the question response", func(t *testing.T) {
		resp, err := testProvider().Complete(ctx, &domain.CompletionRequest{
			Model:    "mock-model",
			Messages: []domain.Message{{Role: "user", Content: "What is Go?"}},
		})

		require.NoError(t, err)
		require.Contains(t, resp.Text(), "interesting question")
	})

	t.Run("should be deterministic for the same input", func(t *testing.T) {
		req := &domain.CompletionRequest{
			Model:    "mock-model",
			Messages: []domain.Message{{Role: "user", Content: "tell me something"}},
		}

		first, err := testProvider().Complete(ctx, req)
		require.NoError(t, err)
		second, err := testProvider().Complete(ctx, req)
		require.NoError(t, err)

		require.Equal(t, first.Text(), second.Text())
	})

	t.Run("should truncate the response to max tokens", func(t *testing.T) {
		resp, err := testProvider().Complete(ctx, &domain.CompletionRequest{
			Model:     "mock-model",
			MaxTokens: 3,
			Messages:  []domain.Message{{Role: "user", Content: "tell me something long"}},
		})

		require.NoError(t, err)
		require.Len(t, strings.Fields(resp.Text()), 3)
		require.Equal(t, 3, resp.Usage.CompletionTokens)
	})

	t.Run("should fail without an API key", func(t *testing.T) {
		provider := mockapi.NewProvider(mockapi.Config{})

		_, err := provider.Complete(ctx, &domain.CompletionRequest{
			Model:    "mock-model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "API key is required")
	})

	t.Run("should reject empty messages", func(t *testing.T) {
		_, err := testProvider().Complete(ctx, &domain.CompletionRequest{Model: "mock-model"})

		require.Error(t, err)
		require.Contains(t, err.Error(), "messages cannot be empty")
	})
}

func TestEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("should return one vector per input", func(t *testing.T) {
		resp, err := testProvider().Embed(ctx, &domain.EmbeddingRequest{
			Model:  "mock-embed",
			Inputs: []string{"first text", "second text"},
		})

		require.NoError(t, err)
		require.Len(t, resp.Embeddings, 2)
		require.Len(t, resp.Embeddings[0], 64)
		require.NotEqual(t, resp.Embeddings[0], resp.Embeddings[1])
	})

	t.Run("same input always produces the same vector", func(t *testing.T) {
		req := &domain.EmbeddingRequest{Model: "mock-embed", Inputs: []string{"stable input"}}

		first, err := testProvider().Embed(ctx, req)
		require.NoError(t, err)
		second, err := testProvider().Embed(ctx, req)
		require.NoError(t, err)

		require.Equal(t, first.Embeddings, second.Embeddings)
	})

	t.Run("values stay within the unit interval", func(t *testing.T) {
		resp, err := testProvider().Embed(ctx, &domain.EmbeddingRequest{
			Model:  "mock-embed",
			Inputs: []string{"bounds check"},
		})

		require.NoError(t, err)
		for _, v := range resp.Embeddings[0] {
			require.GreaterOrEqual(t, v, -1.0)
			require.Less(t, v, 1.0)
		}
	})

	t.Run("should reject empty inputs", func(t *testing.T) {
		_, err := testProvider().Embed(ctx, &domain.EmbeddingRequest{Model: "mock-embed"})

		require.Error(t, err)
		require.Contains(t, err.Error(), "inputs cannot be empty")
	})
}

func TestGenerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the requested number of images", func(t *testing.T) {
		resp, err := testProvider().GenerateImage(ctx, &domain.ImageRequest{
			Model:  "mock-image",
			Prompt: "a fire demon in a moving castle",
			Count:  3,
		})

		require.NoError(t, err)
		require.Len(t, resp.Images, 3)
		for _, img := range resp.Images {
			require.Contains(t, img.URL, "https://api.example.com/v1/images/")
		}
	})

	t.Run("count defaults to one", func(t *testing.T) {
		resp, err := testProvider().GenerateImage(ctx, &domain.ImageRequest{
			Model:  "mock-image",
			Prompt: "a castle",
		})

		require.NoError(t, err)
		require.Len(t, resp.Images, 1)
	})

	t.Run("should reject an empty prompt", func(t *testing.T) {
		_, err := testProvider().GenerateImage(ctx, &domain.ImageRequest{Model: "mock-image"})

		require.Error(t, err)
		require.Contains(t, err.Error(), "prompt cannot be empty")
	})
}
