package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ModelRef is an explicit-provider model address in "provider/model" form.
// The model part may itself contain slashes (e.g. org-scoped model names).
type ModelRef struct {
	Provider string
	Model    string
}

// ParseModelRef splits a "provider/model" string. Both parts must be
// non-empty.
func ParseModelRef(s string) (ModelRef, error) {
	if s == "" {
		return ModelRef{}, errors.New("model cannot be empty")
	}

	providerName, model, found := strings.Cut(s, "/")
	if !found || providerName == "" || model == "" {
		return ModelRef{}, fmt.Errorf("model %q must use the provider/model form", s)
	}

	return ModelRef{Provider: providerName, Model: model}, nil
}

func (m ModelRef) String() string {
	return m.Provider + "/" + m.Model
}
