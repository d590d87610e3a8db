package http //nolint:testpackage // Needs the unexported statusFor mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/gateway"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/provider/echo"
	"github.com/davidbz/howl/internal/provider/registry"
)

func testHandler(t *testing.T, hooks *hook.Chain) *Handler {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register("echo", func() (domain.Provider, error) {
		return echo.NewProvider(), nil
	}))

	dispatcher := gateway.NewDispatcher(hooks)
	require.NoError(t, reg.Initialize(dispatcher))

	return NewHandler(dispatcher, reg)
}

func TestHandleCompletion_Success(t *testing.T) {
	handler := testHandler(t, nil)

	req := domain.CompletionRequest{
		Model: "echo/test",
		Messages: []domain.Message{
			{Role: "user", Content: "Hello"},
		},
	}

	reqBody, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response domain.CompletionResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	require.Equal(t, "echo", response.Provider)
	require.Equal(t, "Echo: Hello", response.Text())
}

func TestHandleCompletion_MethodNotAllowed(t *testing.T) {
	handler := testHandler(t, nil)

	httpReq := httptest.NewRequest(http.MethodGet, "/v1/completions", nil)
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleCompletion_InvalidJSON(t *testing.T) {
	handler := testHandler(t, nil)

	httpReq := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader([]byte("invalid json")))
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCompletion_MissingModel(t *testing.T) {
	handler := testHandler(t, nil)

	req := domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: "user", Content: "Hello"},
		},
	}

	reqBody, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCompletion_StreamRejected(t *testing.T) {
	handler := testHandler(t, nil)

	req := domain.CompletionRequest{
		Model:  "echo/test",
		Stream: true,
		Messages: []domain.Message{
			{Role: "user", Content: "Hello"},
		},
	}

	reqBody, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCompletion_UnknownProvider(t *testing.T) {
	handler := testHandler(t, nil)

	req := domain.CompletionRequest{
		Model: "missing/model",
		Messages: []domain.Message{
			{Role: "user", Content: "Hello"},
		},
	}

	reqBody, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusNotFound, w.Code)
}

// rejectingHook aborts every request from its pre-call hook.
type rejectingHook struct {
	hook.Base
}

func (rejectingHook) Name() string {
	return "rejecting"
}

func (rejectingHook) PreCall(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionRequest, error) {
	return nil, errors.New("request rejected")
}

func TestHandleCompletion_HookRejection(t *testing.T) {
	handler := testHandler(t, hook.NewChain(rejectingHook{}))

	req := domain.CompletionRequest{
		Model: "echo/test",
		Messages: []domain.Message{
			{Role: "user", Content: "Hello"},
		},
	}

	reqBody, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.HandleCompletion(w, httpReq)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleProviders(t *testing.T) {
	handler := testHandler(t, nil)

	httpReq := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	w := httptest.NewRecorder()

	handler.HandleProviders(w, httpReq)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]string
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	require.Equal(t, []string{"echo"}, response["providers"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "unknown provider maps to 404",
			err:    domain.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "unsupported capability maps to 501",
			err:    domain.ErrUnsupported,
			status: http.StatusNotImplemented,
		},
		{
			name:   "hook rejection maps to 422",
			err:    domain.NewHookError("gate", errors.New("blocked")),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "anything else maps to 500",
			err:    errors.New("backend exploded"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	handler := testHandler(t, nil)

	httpReq := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, httpReq)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]string
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	require.Equal(t, "healthy", response["status"])
}
