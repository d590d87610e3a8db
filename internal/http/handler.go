package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/gateway"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/registry"
)

// Handler handles HTTP requests.
type Handler struct {
	dispatcher *gateway.Dispatcher
	registry   *registry.Registry
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(dispatcher *gateway.Dispatcher, reg *registry.Registry) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		registry:   reg,
	}
}

// HandleCompletion processes non-streaming completion requests. The model
// field addresses the backend in "provider/model" form.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if req.Stream {
		http.Error(w, "streaming is not supported on this endpoint", http.StatusBadRequest)
		return
	}

	if _, err := gateway.ParseModelRef(req.Model); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("completion request received",
		zap.String("model", req.Model),
	)

	response, err := h.dispatcher.Complete(ctx, &req)
	if err != nil {
		logger.Error("completion failed", zap.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	logger.Info("completion succeeded",
		zap.Int("tokens", response.Usage.TotalTokens),
	)

	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.Error("failed to encode response", zap.Error(encodeErr))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", encodeErr), http.StatusInternalServerError)
		return
	}
}

// HandleProviders lists the registered provider names in registration order.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{
		"providers": h.registry.List(),
	}); err != nil {
		observability.FromContext(r.Context()).Error("failed to encode providers", zap.Error(err))
	}
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

// statusFor maps dispatch errors onto HTTP status codes.
func statusFor(err error) int {
	var hookErr *domain.HookError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.As(err, &hookErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
