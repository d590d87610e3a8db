// Package hook defines the callback points at which a plugin may observe or
// mutate a request/response as it passes through the gateway dispatch path.
//
// A plugin implements any subset of the lifecycle methods by embedding Base,
// which provides no-op defaults. Response mutation is only defined for the
// non-streaming path; streaming responses are observe-only.
package hook

import (
	"context"
	"time"

	"github.com/davidbz/howl/internal/domain"
)

// Event carries the request/response pair handed to the logging hooks after
// delivery of the response (or the failure) to the original caller.
type Event struct {
	Request   *domain.CompletionRequest
	Response  *domain.CompletionResponse
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the wall time between request start and completion.
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Hook is the interceptor contract. Lifecycle order for a single request:
// PreCall (may mutate the request, may abort), the backend call,
// PostCallSuccess (may mutate the response, must not abort delivery), then
// LogSuccess or LogFailure. StreamObserve fires once per chunk on the
// streaming path instead of PostCallSuccess.
type Hook interface {
	// Name returns the hook identifier used in logs and error wrapping.
	Name() string

	// PreCall runs before backend dispatch. Returning a non-nil request
	// replaces the payload for the rest of the pipeline; returning nil keeps
	// the current one. An error aborts the request before the backend call.
	PreCall(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionRequest, error)

	// PostCallSuccess runs after a successful non-streaming backend response.
	// Returning a non-nil response replaces it for the rest of the pipeline.
	// An error is caught by the chain: the prior response is still delivered.
	PostCallSuccess(ctx context.Context, req *domain.CompletionRequest, resp *domain.CompletionResponse) (*domain.CompletionResponse, error)

	// LogSuccess observes a delivered response. Observability only.
	LogSuccess(ctx context.Context, ev *Event)

	// LogFailure observes a failed backend call. Observability only.
	LogFailure(ctx context.Context, ev *Event)

	// StreamObserve observes a single streaming chunk. Observability only.
	StreamObserve(ctx context.Context, req *domain.CompletionRequest, chunk domain.StreamChunk)
}

// Caller issues secondary model calls on behalf of a hook. Implementations
// mark every call so it bypasses the hook pipeline, preventing a hook from
// re-triggering itself through its own calls.
type Caller interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error)
}

// Base provides no-op implementations for every lifecycle method except Name,
// so a plugin only spells out the hooks it cares about.
type Base struct{}

// PreCall keeps the request unchanged.
func (Base) PreCall(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionRequest, error) {
	return nil, nil
}

// PostCallSuccess keeps the response unchanged.
func (Base) PostCallSuccess(_ context.Context, _ *domain.CompletionRequest, _ *domain.CompletionResponse) (*domain.CompletionResponse, error) {
	return nil, nil
}

// LogSuccess does nothing.
func (Base) LogSuccess(_ context.Context, _ *Event) {}

// LogFailure does nothing.
func (Base) LogFailure(_ context.Context, _ *Event) {}

// StreamObserve does nothing.
func (Base) StreamObserve(_ context.Context, _ *domain.CompletionRequest, _ domain.StreamChunk) {}
