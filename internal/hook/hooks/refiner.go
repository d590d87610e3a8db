package hooks

import (
	"context"
	"fmt"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/observability"
)

// ResponseRefiner sends each completion response to a second model for
// polishing before delivery. The secondary call goes through a hook.Caller,
// which marks it so the hook pipeline cannot re-enter, and is bounded by the
// caller's timeout. On any failure the original response is delivered
// unchanged; this hook never fails a request.
type ResponseRefiner struct {
	hook.Base
	caller hook.Caller
	model  string // "provider/model" address of the refining backend
}

// NewResponseRefiner creates a refiner that polishes responses through the
// given model address.
func NewResponseRefiner(caller hook.Caller, model string) *ResponseRefiner {
	return &ResponseRefiner{caller: caller, model: model}
}

// Name returns the hook identifier.
func (r *ResponseRefiner) Name() string {
	return "response_refiner"
}

// PostCallSuccess replaces the response content with the refined version, or
// keeps the original on any secondary-call failure.
func (r *ResponseRefiner) PostCallSuccess(ctx context.Context, req *domain.CompletionRequest, resp *domain.CompletionResponse) (*domain.CompletionResponse, error) {
	content := resp.Text()
	if content == "" {
		return resp, nil
	}

	secondary := &domain.CompletionRequest{
		Model: r.model,
		Messages: []domain.Message{
			{
				Role:    "system",
				Content: "Rewrite the assistant answer below so it is clearer and more concise. Reply with the rewritten answer only.",
			},
			{
				Role:    "user",
				Content: fmt.Sprintf("Question: %s\n\nAnswer: %s", lastUserContent(req), content),
			},
		},
	}

	refined, err := r.caller.Complete(ctx, secondary)
	if err != nil {
		observability.FromContext(ctx).Warn("refinement call failed, keeping original response",
			observability.Error(err))
		return resp, nil
	}

	if refinedContent := refined.Text(); refinedContent != "" {
		resp.SetText(refinedContent)
	}

	return resp, nil
}

func lastUserContent(req *domain.CompletionRequest) string {
	if req == nil {
		return ""
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}
