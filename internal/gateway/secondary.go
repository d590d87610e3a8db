package gateway

import (
	"context"
	"time"

	"github.com/davidbz/howl/internal/domain"
)

// SecondaryCaller is the call surface handed to hooks that issue model calls
// of their own. Every call it makes carries the SkipHooks marker, so a
// secondary call can never re-enter the hook pipeline, and is bounded by its
// own timeout, distinct from the primary request's.
type SecondaryCaller struct {
	dispatcher *Dispatcher
	timeout    time.Duration
}

// NewSecondaryCaller wraps a dispatcher for use from inside hooks. A zero
// timeout means the secondary call inherits only the primary context's
// deadline.
func NewSecondaryCaller(dispatcher *Dispatcher, timeout time.Duration) *SecondaryCaller {
	return &SecondaryCaller{
		dispatcher: dispatcher,
		timeout:    timeout,
	}
}

// Complete issues a marked secondary completion call.
func (s *SecondaryCaller) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.dispatcher.Complete(ctx, req, SkipHooks())
}
