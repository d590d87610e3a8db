package hooks

import (
	"context"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/observability"
)

// UsageStore persists per-model usage counters.
type UsageStore interface {
	// RecordUsage adds a completed request's token counts to the model's totals.
	RecordUsage(ctx context.Context, model string, usage domain.Usage) error

	// RecordFailure increments the model's failure counter.
	RecordFailure(ctx context.Context, model string) error
}

// UsageTracker records token usage and failures per model through a
// UsageStore. Store errors are logged and swallowed; tracking must never
// interfere with request delivery.
type UsageTracker struct {
	hook.Base
	store UsageStore
}

// NewUsageTracker creates a usage tracker backed by the given store.
func NewUsageTracker(store UsageStore) *UsageTracker {
	return &UsageTracker{store: store}
}

// Name returns the hook identifier.
func (u *UsageTracker) Name() string {
	return "usage_tracker"
}

// LogSuccess records the delivered response's token usage.
func (u *UsageTracker) LogSuccess(ctx context.Context, ev *hook.Event) {
	if ev.Response == nil {
		return
	}

	if err := u.store.RecordUsage(ctx, modelOf(ev.Request), ev.Response.Usage); err != nil {
		observability.FromContext(ctx).Warn("failed to record usage",
			observability.Error(err))
	}
}

// LogFailure records the failed request.
func (u *UsageTracker) LogFailure(ctx context.Context, ev *hook.Event) {
	if err := u.store.RecordFailure(ctx, modelOf(ev.Request)); err != nil {
		observability.FromContext(ctx).Warn("failed to record failure",
			observability.Error(err))
	}
}

func modelOf(req *domain.CompletionRequest) string {
	if req == nil {
		return "unknown"
	}
	return req.Model
}
