// Package gateway implements the dispatch path that connects registered
// providers with the hook pipeline: pre-call hooks, the backend call,
// post-call hooks, then the logging hooks.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/observability"
)

// Dispatcher routes requests addressed as "provider/model" to providers in
// its dispatch table, running the hook chain around each unmarked call.
type Dispatcher struct {
	mu        sync.RWMutex
	providers map[string]domain.Provider
	hooks     *hook.Chain
}

// NewDispatcher creates a dispatcher with an empty provider table. A nil
// chain means no hooks run.
func NewDispatcher(hooks *hook.Chain) *Dispatcher {
	if hooks == nil {
		hooks = hook.NewChain()
	}
	return &Dispatcher{
		providers: make(map[string]domain.Provider),
		hooks:     hooks,
	}
}

// Bind places a provider into the dispatch table under name, replacing any
// previous binding. Implements registry.Binder.
func (d *Dispatcher) Bind(name string, provider domain.Provider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[name] = provider
}

// Unbind removes a provider from the dispatch table.
func (d *Dispatcher) Unbind(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.providers, name)
}

func (d *Dispatcher) provider(name string) (domain.Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, exists := d.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

// Complete handles a non-streaming completion request. Pre-call hooks run
// first and may mutate the request or abort it; post-call hooks may mutate
// the response, with hook failures isolated so the backend's response is
// always delivered; logging hooks observe the outcome. A call issued with
// SkipHooks bypasses all of that.
func (d *Dispatcher) Complete(ctx context.Context, req *domain.CompletionRequest, opts ...CallOption) (*domain.CompletionResponse, error) {
	cfg := applyOptions(opts)

	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	ref, err := ParseModelRef(req.Model)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, ref.Provider)
	ctx = observability.WithModel(ctx, ref.Model)

	startTime := time.Now()

	if !cfg.skipHooks {
		modified, hookErr := d.hooks.PreCall(ctx, req)
		if hookErr != nil {
			observability.FromContext(ctx).Error("pre-call hook aborted request",
				observability.Error(hookErr))
			return nil, hookErr
		}
		req = modified

		// A pre-call hook may have redirected the request.
		if req.Model != ref.String() {
			if ref, err = ParseModelRef(req.Model); err != nil {
				return nil, err
			}
		}
	}

	p, err := d.provider(ref.Provider)
	if err != nil {
		return nil, err
	}

	backendReq := req.Clone()
	backendReq.Model = ref.Model

	resp, err := p.Complete(ctx, backendReq)
	if err != nil {
		provErr := domain.NewProviderError(ref.Provider, "complete", err)
		if !cfg.skipHooks {
			d.hooks.LogFailure(ctx, &hook.Event{
				Request:   req,
				Err:       provErr,
				StartTime: startTime,
				EndTime:   time.Now(),
			})
		}
		return nil, provErr
	}

	if resp.Provider == "" {
		resp.Provider = ref.Provider
	}

	if !cfg.skipHooks {
		resp = d.hooks.PostCallSuccess(ctx, req, resp)
		d.hooks.LogSuccess(ctx, &hook.Event{
			Request:   req,
			Response:  resp,
			StartTime: startTime,
			EndTime:   time.Now(),
		})
	}

	return resp, nil
}

// Stream handles a streaming completion request. Pre-call hooks run before
// dispatch; the delivered chunks are observe-only, so no mutation hook fires
// on this path. LogSuccess fires once the stream finishes cleanly,
// LogFailure if it ends with an error.
func (d *Dispatcher) Stream(ctx context.Context, req *domain.CompletionRequest, opts ...CallOption) (<-chan domain.StreamChunk, error) {
	cfg := applyOptions(opts)

	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	ref, err := ParseModelRef(req.Model)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, ref.Provider)
	ctx = observability.WithModel(ctx, ref.Model)

	startTime := time.Now()

	if !cfg.skipHooks {
		modified, hookErr := d.hooks.PreCall(ctx, req)
		if hookErr != nil {
			observability.FromContext(ctx).Error("pre-call hook aborted request",
				observability.Error(hookErr))
			return nil, hookErr
		}
		req = modified

		if req.Model != ref.String() {
			if ref, err = ParseModelRef(req.Model); err != nil {
				return nil, err
			}
		}
	}

	p, err := d.provider(ref.Provider)
	if err != nil {
		return nil, err
	}

	streamer, ok := p.(domain.Streamer)
	if !ok {
		return nil, fmt.Errorf("provider %s: stream: %w", ref.Provider, domain.ErrUnsupported)
	}

	backendReq := req.Clone()
	backendReq.Model = ref.Model

	chunks, err := streamer.Stream(ctx, backendReq)
	if err != nil {
		provErr := domain.NewProviderError(ref.Provider, "stream", err)
		if !cfg.skipHooks {
			d.hooks.LogFailure(ctx, &hook.Event{
				Request:   req,
				Err:       provErr,
				StartTime: startTime,
				EndTime:   time.Now(),
			})
		}
		return nil, provErr
	}

	if cfg.skipHooks {
		return chunks, nil
	}

	observed := make(chan domain.StreamChunk)
	go func() {
		defer close(observed)

		var streamErr error
		for chunk := range chunks {
			d.hooks.StreamObserve(ctx, req, chunk)
			if chunk.Error != nil {
				streamErr = chunk.Error
			}

			select {
			case observed <- chunk:
			case <-ctx.Done():
				return
			}
		}

		ev := &hook.Event{
			Request:   req,
			Err:       streamErr,
			StartTime: startTime,
			EndTime:   time.Now(),
		}
		if streamErr != nil {
			d.hooks.LogFailure(ctx, ev)
		} else {
			d.hooks.LogSuccess(ctx, ev)
		}
	}()

	return observed, nil
}

// Embed routes an embedding request to the addressed provider. The hook
// pipeline is completion-scoped and does not run on this path.
func (d *Dispatcher) Embed(ctx context.Context, req *domain.EmbeddingRequest) (*domain.EmbeddingResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	ref, err := ParseModelRef(req.Model)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, ref.Provider)
	ctx = observability.WithModel(ctx, ref.Model)

	p, err := d.provider(ref.Provider)
	if err != nil {
		return nil, err
	}

	embedder, ok := p.(domain.Embedder)
	if !ok {
		return nil, fmt.Errorf("provider %s: embed: %w", ref.Provider, domain.ErrUnsupported)
	}

	backendReq := *req
	backendReq.Model = ref.Model

	resp, err := embedder.Embed(ctx, &backendReq)
	if err != nil {
		return nil, domain.NewProviderError(ref.Provider, "embed", err)
	}

	if resp.Provider == "" {
		resp.Provider = ref.Provider
	}

	return resp, nil
}

// GenerateImage routes an image generation request to the addressed
// provider. The hook pipeline does not run on this path.
func (d *Dispatcher) GenerateImage(ctx context.Context, req *domain.ImageRequest) (*domain.ImageResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	ref, err := ParseModelRef(req.Model)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, ref.Provider)
	ctx = observability.WithModel(ctx, ref.Model)

	p, err := d.provider(ref.Provider)
	if err != nil {
		return nil, err
	}

	generator, ok := p.(domain.ImageGenerator)
	if !ok {
		return nil, fmt.Errorf("provider %s: generate_image: %w", ref.Provider, domain.ErrUnsupported)
	}

	backendReq := *req
	backendReq.Model = ref.Model

	resp, err := generator.GenerateImage(ctx, &backendReq)
	if err != nil {
		return nil, domain.NewProviderError(ref.Provider, "generate_image", err)
	}

	if resp.Provider == "" {
		resp.Provider = ref.Provider
	}

	return resp, nil
}
