package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/gateway"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/provider/echo"
)

// countingProvider records how many times Complete ran.
type countingProvider struct {
	name      string
	response  *domain.CompletionResponse
	err       error
	calls     int
	lastModel string
}

func (p *countingProvider) Name() string {
	return p.name
}

func (p *countingProvider) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	p.calls++
	p.lastModel = req.Model
	if p.err != nil {
		return nil, p.err
	}

	resp := *p.response
	return &resp, nil
}

// recordingHook counts lifecycle invocations and optionally fails.
type recordingHook struct {
	hook.Base
	name          string
	preCalls      int
	postCalls     int
	logSuccesses  int
	logFailures   int
	preCallErr    error
	postCallErr   error
	mutateRequest func(*domain.CompletionRequest)
	mutateResp    func(*domain.CompletionResponse)
}

func (h *recordingHook) Name() string {
	return h.name
}

func (h *recordingHook) PreCall(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionRequest, error) {
	h.preCalls++
	if h.preCallErr != nil {
		return nil, h.preCallErr
	}
	if h.mutateRequest != nil {
		h.mutateRequest(req)
	}
	return req, nil
}

func (h *recordingHook) PostCallSuccess(_ context.Context, _ *domain.CompletionRequest, resp *domain.CompletionResponse) (*domain.CompletionResponse, error) {
	h.postCalls++
	if h.postCallErr != nil {
		return nil, h.postCallErr
	}
	if h.mutateResp != nil {
		h.mutateResp(resp)
	}
	return resp, nil
}

func (h *recordingHook) LogSuccess(_ context.Context, _ *hook.Event) {
	h.logSuccesses++
}

func (h *recordingHook) LogFailure(_ context.Context, _ *hook.Event) {
	h.logFailures++
}

func testResponse(content string) *domain.CompletionResponse {
	return &domain.CompletionResponse{
		ID:      "test-id",
		Model:   "test-model",
		Created: time.Now(),
		Choices: []domain.Choice{
			{
				Index:        0,
				Message:      domain.Message{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: domain.NewUsage(10, 20),
	}
}

func TestDispatcher_Complete(t *testing.T) {
	t.Run("should echo through a registered provider", func(t *testing.T) {
		d := gateway.NewDispatcher(nil)
		d.Bind("echo", echo.NewProvider())

		resp, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model: "echo/test",
			Messages: []domain.Message{
				{Role: "user", Content: "Hello!"},
			},
		})

		require.NoError(t, err)
		require.Equal(t, "Echo: Hello!", resp.Text())
		require.Equal(t, "echo", resp.Provider)
	})

	t.Run("should return ErrNotFound for unknown provider", func(t *testing.T) {
		d := gateway.NewDispatcher(nil)

		_, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "missing/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("should reject model without provider prefix", func(t *testing.T) {
		d := gateway.NewDispatcher(nil)
		d.Bind("echo", echo.NewProvider())

		_, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "bare-model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "provider/model")
	})

	t.Run("should pass the bare model name to the provider", func(t *testing.T) {
		var seenModel string
		p := &countingProvider{name: "spy", response: testResponse("ok")}

		d := gateway.NewDispatcher(hook.NewChain(&recordingHook{
			name: "observer",
			mutateRequest: func(req *domain.CompletionRequest) {
				seenModel = req.Model
			},
		}))
		d.Bind("spy", p)

		_, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "spy/deep/model-v2",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.NoError(t, err)
		// Hooks see the addressed form; the provider gets the bare model.
		require.Equal(t, "spy/deep/model-v2", seenModel)
		require.Equal(t, "deep/model-v2", p.lastModel)
		require.Equal(t, 1, p.calls)
	})

	t.Run("should preserve usage through a no-op hook chain", func(t *testing.T) {
		p := &countingProvider{name: "fixed", response: testResponse("answer")}

		noop := &recordingHook{name: "noop"}
		d := gateway.NewDispatcher(hook.NewChain(noop))
		d.Bind("fixed", p)

		resp, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "fixed/test-model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.NoError(t, err)
		require.Equal(t, 10, resp.Usage.PromptTokens)
		require.Equal(t, 20, resp.Usage.CompletionTokens)
		require.Equal(t, 30, resp.Usage.TotalTokens)
		require.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	})

	t.Run("should abort before the backend call when pre-call fails", func(t *testing.T) {
		p := &countingProvider{name: "backend", response: testResponse("never")}

		failing := &recordingHook{name: "gate", preCallErr: errors.New("request rejected")}
		d := gateway.NewDispatcher(hook.NewChain(failing))
		d.Bind("backend", p)

		_, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "backend/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		var hookErr *domain.HookError
		require.ErrorAs(t, err, &hookErr)
		require.Equal(t, "gate", hookErr.Hook)
		require.Equal(t, 0, p.calls)
	})

	t.Run("should deliver the original response when a post-call hook fails", func(t *testing.T) {
		p := &countingProvider{name: "backend", response: testResponse("original answer")}

		failing := &recordingHook{name: "broken", postCallErr: errors.New("secondary call failed")}
		d := gateway.NewDispatcher(hook.NewChain(failing))
		d.Bind("backend", p)

		resp, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "backend/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.NoError(t, err)
		require.Equal(t, "original answer", resp.Text())
	})

	t.Run("should run logging hooks after a provider failure", func(t *testing.T) {
		p := &countingProvider{name: "down", err: errors.New("connection refused")}

		observer := &recordingHook{name: "observer"}
		d := gateway.NewDispatcher(hook.NewChain(observer))
		d.Bind("down", p)

		_, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "down/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		var provErr *domain.ProviderError
		require.ErrorAs(t, err, &provErr)
		require.Equal(t, "down", provErr.Provider)
		require.Equal(t, 1, observer.logFailures)
		require.Equal(t, 0, observer.logSuccesses)
		require.Equal(t, 0, observer.postCalls)
	})

	t.Run("should filter blocked words via post-call hook", func(t *testing.T) {
		p := &countingProvider{name: "backend", response: testResponse("This is spam")}

		d := gateway.NewDispatcher(hook.NewChain(&recordingHook{
			name: "content_filter",
			mutateResp: func(resp *domain.CompletionResponse) {
				resp.SetText("This is [FILTERED]")
			},
		}))
		d.Bind("backend", p)

		resp, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "backend/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.NoError(t, err)
		require.Equal(t, "This is [FILTERED]", resp.Text())
	})
}

func TestDispatcher_SkipHooks(t *testing.T) {
	t.Run("marked call must not trigger any hook", func(t *testing.T) {
		p := &countingProvider{name: "backend", response: testResponse("ok")}

		observer := &recordingHook{name: "observer"}
		d := gateway.NewDispatcher(hook.NewChain(observer))
		d.Bind("backend", p)

		_, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "backend/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		}, gateway.SkipHooks())

		require.NoError(t, err)
		require.Equal(t, 1, p.calls)
		require.Equal(t, 0, observer.preCalls)
		require.Equal(t, 0, observer.postCalls)
		require.Equal(t, 0, observer.logSuccesses)
	})

	t.Run("marker applies to exactly one call", func(t *testing.T) {
		p := &countingProvider{name: "backend", response: testResponse("ok")}

		observer := &recordingHook{name: "observer"}
		d := gateway.NewDispatcher(hook.NewChain(observer))
		d.Bind("backend", p)

		req := &domain.CompletionRequest{
			Model:    "backend/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		}

		_, err := d.Complete(context.Background(), req, gateway.SkipHooks())
		require.NoError(t, err)

		_, err = d.Complete(context.Background(), req)
		require.NoError(t, err)

		require.Equal(t, 1, observer.preCalls)
		require.Equal(t, 1, observer.postCalls)
	})
}

// refiningHook issues a secondary call through a hook.Caller from its
// post-call hook, the way a real analysis hook would.
type refiningHook struct {
	hook.Base
	caller      hook.Caller
	model       string
	invocations int
}

func (h *refiningHook) Name() string {
	return "refining"
}

func (h *refiningHook) PostCallSuccess(ctx context.Context, _ *domain.CompletionRequest, resp *domain.CompletionResponse) (*domain.CompletionResponse, error) {
	h.invocations++

	refined, err := h.caller.Complete(ctx, &domain.CompletionRequest{
		Model:    h.model,
		Messages: []domain.Message{{Role: "user", Content: "refine: " + resp.Text()}},
	})
	if err != nil {
		return resp, nil
	}

	resp.SetText(refined.Text())
	return resp, nil
}

func TestDispatcher_SecondaryCalls(t *testing.T) {
	t.Run("secondary call does not re-enter the hook pipeline", func(t *testing.T) {
		chain := hook.NewChain()
		d := gateway.NewDispatcher(chain)
		d.Bind("echo", echo.NewProvider())

		h := &refiningHook{
			caller: gateway.NewSecondaryCaller(d, time.Second),
			model:  "echo/refine",
		}
		chain.Append(h)

		resp, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "echo/test",
			Messages: []domain.Message{{Role: "user", Content: "Hello!"}},
		})

		require.NoError(t, err)
		// The hook ran exactly once: the secondary call it issued was marked
		// and could not re-trigger it, no matter how deep it would recurse.
		require.Equal(t, 1, h.invocations)
		require.Equal(t, "Echo: refine: Echo: Hello!", resp.Text())
	})

	t.Run("secondary call failure falls back to original response", func(t *testing.T) {
		down := &countingProvider{name: "down", err: errors.New("connection refused")}

		chain := hook.NewChain()
		d := gateway.NewDispatcher(chain)
		d.Bind("echo", echo.NewProvider())
		d.Bind("down", down)

		h := &refiningHook{
			caller: gateway.NewSecondaryCaller(d, time.Second),
			model:  "down/refine",
		}
		chain.Append(h)

		resp, err := d.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "echo/test",
			Messages: []domain.Message{{Role: "user", Content: "Hello!"}},
		})

		require.NoError(t, err)
		require.Equal(t, 1, down.calls)
		require.Equal(t, "Echo: Hello!", resp.Text())
	})
}

func TestDispatcher_Stream(t *testing.T) {
	t.Run("should stream chunks and observe them", func(t *testing.T) {
		var observed int

		observer := &recordingHook{name: "observer"}
		chain := hook.NewChain(observer, streamCounter(&observed))

		d := gateway.NewDispatcher(chain)
		d.Bind("echo", echo.NewProvider())

		chunks, err := d.Stream(context.Background(), &domain.CompletionRequest{
			Model:    "echo/test",
			Messages: []domain.Message{{Role: "user", Content: "one two three"}},
		})
		require.NoError(t, err)

		var content string
		var final domain.StreamChunk
		for chunk := range chunks {
			content += chunk.Delta
			final = chunk
		}

		require.Equal(t, "Echo: one two three", content)
		require.True(t, final.Done)
		require.Equal(t, "stop", final.FinishReason)
		require.Positive(t, observed)
		require.Equal(t, 1, observer.preCalls)
		// Mutation hooks never fire on the streaming path.
		require.Equal(t, 0, observer.postCalls)
	})

	t.Run("should return ErrUnsupported for non-streaming provider", func(t *testing.T) {
		p := &countingProvider{name: "basic", response: testResponse("ok")}

		d := gateway.NewDispatcher(nil)
		d.Bind("basic", p)

		_, err := d.Stream(context.Background(), &domain.CompletionRequest{
			Model:    "basic/model",
			Messages: []domain.Message{{Role: "user", Content: "hi"}},
		})

		require.ErrorIs(t, err, domain.ErrUnsupported)
	})
}

// streamCounter returns a hook counting observed stream chunks.
func streamCounter(count *int) hook.Hook {
	return &chunkCounter{count: count}
}

type chunkCounter struct {
	hook.Base
	count *int
}

func (c *chunkCounter) Name() string {
	return "chunk_counter"
}

func (c *chunkCounter) StreamObserve(_ context.Context, _ *domain.CompletionRequest, _ domain.StreamChunk) {
	*c.count++
}

func TestDispatcher_Capabilities(t *testing.T) {
	t.Run("Embed should return ErrUnsupported for completion-only provider", func(t *testing.T) {
		d := gateway.NewDispatcher(nil)
		d.Bind("echo", echo.NewProvider())

		_, err := d.Embed(context.Background(), &domain.EmbeddingRequest{
			Model:  "echo/embedder",
			Inputs: []string{"text"},
		})

		require.ErrorIs(t, err, domain.ErrUnsupported)
	})

	t.Run("GenerateImage should return ErrUnsupported for completion-only provider", func(t *testing.T) {
		d := gateway.NewDispatcher(nil)
		d.Bind("echo", echo.NewProvider())

		_, err := d.GenerateImage(context.Background(), &domain.ImageRequest{
			Model:  "echo/painter",
			Prompt: "a fire demon",
		})

		require.ErrorIs(t, err, domain.ErrUnsupported)
	})
}
