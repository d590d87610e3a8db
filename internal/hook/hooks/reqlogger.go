package hooks

import (
	"context"
	"sync/atomic"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/observability"
)

// RequestLogger logs every request and its outcome, and publishes lifecycle
// events on the event bus. Pure observability: it never mutates anything.
type RequestLogger struct {
	hook.Base
	events       observability.EventPublisher
	requestCount atomic.Int64
}

// NewRequestLogger creates a request logger. A nil publisher disables event
// publishing; logging still happens.
func NewRequestLogger(events observability.EventPublisher) *RequestLogger {
	return &RequestLogger{events: events}
}

// Name returns the hook identifier.
func (l *RequestLogger) Name() string {
	return "request_logger"
}

// RequestCount returns the number of requests observed so far.
func (l *RequestLogger) RequestCount() int64 {
	return l.requestCount.Load()
}

// PreCall logs the incoming request and returns it unchanged.
func (l *RequestLogger) PreCall(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionRequest, error) {
	count := l.requestCount.Add(1)

	observability.FromContext(ctx).Info("request received",
		observability.Int64("request_count", count),
		observability.Int("messages", len(req.Messages)),
	)

	return nil, nil
}

// LogSuccess logs the delivered response.
func (l *RequestLogger) LogSuccess(ctx context.Context, ev *hook.Event) {
	totalTokens := 0
	if ev.Response != nil {
		totalTokens = ev.Response.Usage.TotalTokens
	}

	observability.FromContext(ctx).Info("request succeeded",
		observability.Duration("duration", ev.Duration()),
		observability.Int("total_tokens", totalTokens),
	)

	if l.events != nil {
		l.events.Publish(ctx, "completion.success", map[string]interface{}{
			"duration_ms":  ev.Duration().Milliseconds(),
			"total_tokens": totalTokens,
		})
	}
}

// LogFailure logs the failed backend call.
func (l *RequestLogger) LogFailure(ctx context.Context, ev *hook.Event) {
	observability.FromContext(ctx).Error("request failed",
		observability.Duration("duration", ev.Duration()),
		observability.Error(ev.Err),
	)

	if l.events != nil {
		l.events.Publish(ctx, "completion.failure", map[string]interface{}{
			"duration_ms": ev.Duration().Milliseconds(),
			"error":       ev.Err.Error(),
		})
	}
}

// StreamObserve logs stream termination chunks.
func (l *RequestLogger) StreamObserve(ctx context.Context, _ *domain.CompletionRequest, chunk domain.StreamChunk) {
	if chunk.Done {
		observability.FromContext(ctx).Info("stream finished",
			observability.String("finish_reason", chunk.FinishReason))
	}
}
