package hooks

import (
	"context"
	"strings"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/hook"
)

const filteredPlaceholder = "[FILTERED]"

// ContentFilter replaces blocked words in completion responses with a
// placeholder before they reach the caller.
type ContentFilter struct {
	hook.Base
	blockedWords []string
}

// NewContentFilter creates a content filter for the given blocked words.
func NewContentFilter(blockedWords []string) *ContentFilter {
	return &ContentFilter{blockedWords: blockedWords}
}

// Name returns the hook identifier.
func (f *ContentFilter) Name() string {
	return "content_filter"
}

// PostCallSuccess filters blocked words from every choice.
func (f *ContentFilter) PostCallSuccess(_ context.Context, _ *domain.CompletionRequest, resp *domain.CompletionResponse) (*domain.CompletionResponse, error) {
	for i := range resp.Choices {
		content := resp.Choices[i].Message.Content
		for _, word := range f.blockedWords {
			content = strings.ReplaceAll(content, word, filteredPlaceholder)
		}
		resp.Choices[i].Message.Content = content
	}
	return resp, nil
}
