package hook

import (
	"context"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Chain runs hooks strictly in registration order. It owns the failure
// isolation rules: pre-call errors abort, everything after the backend call
// is caught and logged so the original response is still delivered.
type Chain struct {
	hooks []Hook
}

// NewChain creates a chain with the given hooks, invoked in order.
func NewChain(hooks ...Hook) *Chain {
	return &Chain{hooks: hooks}
}

// Append adds a hook at the end of the chain.
func (c *Chain) Append(h Hook) {
	c.hooks = append(c.hooks, h)
}

// Len returns the number of registered hooks.
func (c *Chain) Len() int {
	return len(c.hooks)
}

// PreCall runs every pre-call hook in order, threading the possibly-modified
// request through. The first error short-circuits the chain and aborts the
// request; the error is wrapped as a HookError naming the hook.
func (c *Chain) PreCall(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionRequest, error) {
	for _, h := range c.hooks {
		hookCtx := observability.WithHook(ctx, h.Name())

		modified, err := h.PreCall(hookCtx, req)
		if err != nil {
			return nil, domain.NewHookError(h.Name(), err)
		}
		if modified != nil {
			req = modified
		}
	}
	return req, nil
}

// PostCallSuccess runs every post-call hook in order. A hook error never
// propagates: the chain logs it and keeps the response from before that hook,
// so the caller always receives a valid response.
func (c *Chain) PostCallSuccess(ctx context.Context, req *domain.CompletionRequest, resp *domain.CompletionResponse) *domain.CompletionResponse {
	for _, h := range c.hooks {
		hookCtx := observability.WithHook(ctx, h.Name())

		modified, err := h.PostCallSuccess(hookCtx, req, resp)
		if err != nil {
			observability.FromContext(hookCtx).Warn("post-call hook failed, keeping prior response",
				observability.Error(domain.NewHookError(h.Name(), err)))
			continue
		}
		if modified != nil {
			resp = modified
		}
	}
	return resp
}

// LogSuccess notifies every hook of a delivered response.
func (c *Chain) LogSuccess(ctx context.Context, ev *Event) {
	for _, h := range c.hooks {
		h.LogSuccess(observability.WithHook(ctx, h.Name()), ev)
	}
}

// LogFailure notifies every hook of a failed backend call.
func (c *Chain) LogFailure(ctx context.Context, ev *Event) {
	for _, h := range c.hooks {
		h.LogFailure(observability.WithHook(ctx, h.Name()), ev)
	}
}

// StreamObserve notifies every hook of a streaming chunk.
func (c *Chain) StreamObserve(ctx context.Context, req *domain.CompletionRequest, chunk domain.StreamChunk) {
	for _, h := range c.hooks {
		h.StreamObserve(observability.WithHook(ctx, h.Name()), req, chunk)
	}
}
