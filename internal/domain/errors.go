package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that no provider is registered under the given name.
var ErrNotFound = errors.New("provider not found")

// ErrUnsupported indicates that a provider does not implement the requested
// capability.
var ErrUnsupported = errors.New("capability not supported")

// ProviderError wraps a failure from a backend call: network trouble, auth
// rejection, or a malformed request/response.
type ProviderError struct {
	Provider string
	Op       string // complete, stream, embed, generate_image
	Err      error
}

// NewProviderError creates a ProviderError for the given provider and operation.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// HookError wraps a failure raised by a hook's own logic. During pre-call it
// aborts the request; anywhere else it is caught and logged.
type HookError struct {
	Hook string
	Err  error
}

// NewHookError creates a HookError for the named hook.
func NewHookError(hook string, err error) *HookError {
	return &HookError{Hook: hook, Err: err}
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s failed: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
