// Package hooks contains the built-in hook plugins: response rewriting,
// content filtering, request logging, usage tracking, and secondary-call
// refinement.
package hooks

import (
	"context"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/observability"
)

const defaultPrefix = "[Verified] "

// ResponseModifier prepends a fixed prefix to every completion response.
type ResponseModifier struct {
	hook.Base
	prefix string
}

// NewResponseModifier creates a response modifier. An empty prefix selects
// the default.
func NewResponseModifier(prefix string) *ResponseModifier {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &ResponseModifier{prefix: prefix}
}

// Name returns the hook identifier.
func (m *ResponseModifier) Name() string {
	return "response_modifier"
}

// PostCallSuccess adds the prefix to the response content.
func (m *ResponseModifier) PostCallSuccess(_ context.Context, _ *domain.CompletionRequest, resp *domain.CompletionResponse) (*domain.CompletionResponse, error) {
	if content := resp.Text(); content != "" {
		resp.SetText(m.prefix + content)
	}
	return resp, nil
}

// LogSuccess logs the completed request's model, duration and token usage.
func (m *ResponseModifier) LogSuccess(ctx context.Context, ev *hook.Event) {
	logger := observability.FromContext(ctx)

	totalTokens := 0
	if ev.Response != nil {
		totalTokens = ev.Response.Usage.TotalTokens
	}

	logger.Info("completion delivered",
		observability.Duration("duration", ev.Duration()),
		observability.Int("total_tokens", totalTokens),
	)
}
