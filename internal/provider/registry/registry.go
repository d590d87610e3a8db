// Package registry maintains the process-wide mapping from provider name to
// provider implementation and binds registered providers into the gateway
// dispatch table.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
)

// Factory constructs a provider instance. It runs at most once per entry;
// the registry caches the instance as a singleton.
type Factory func() (domain.Provider, error)

// Binder is the dispatch table the registry binds providers into. Binding
// the same name twice replaces the previous entry.
type Binder interface {
	Bind(name string, provider domain.Provider)
}

type entry struct {
	factory  Factory
	instance domain.Provider
}

// Registry implements register/unregister/lookup/enumerate for providers.
// Mutation is expected at startup or admin time; lookups are safe under
// concurrent access and never observe a partially-constructed entry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	strict  bool
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrict makes duplicate registration an error instead of the default
// replace-with-warning behavior.
func WithStrict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// WithLogger sets the logger used for registration warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty provider registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		order:   nil,
		strict:  false,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds or replaces the entry for name. The default policy is last
// write wins with a logged warning; in strict mode a duplicate name errors.
// Replacing an entry keeps its original position in List and discards any
// previously built instance, so the next lookup constructs the new provider.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	if factory == nil {
		return errors.New("provider factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		if r.strict {
			return fmt.Errorf("provider %s already registered", name)
		}
		r.logger.Warn("replacing registered provider", zap.String("provider", name))
	} else {
		r.order = append(r.order, name)
	}

	r.entries[name] = &entry{factory: factory, instance: nil}

	return nil
}

// Unregister removes the entry for name. Subsequent lookups fail with
// ErrNotFound. Already-bound dispatch tables are unaffected.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return fmt.Errorf("unregister %s: %w", name, domain.ErrNotFound)
	}

	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

// Get returns the singleton instance for name, constructing it on first
// access. Construction happens under the registry lock so concurrent callers
// always see a fully-built provider.
func (r *Registry) Get(name string) (domain.Provider, error) {
	if name == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.instanceLocked(name)
}

// List returns the registered provider names in registration order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Initialize binds every registered provider into the dispatch table,
// instantiating any not yet built. Idempotent: re-running re-binds entries
// without duplicating them.
func (r *Registry) Initialize(binder Binder) error {
	if binder == nil {
		return errors.New("binder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		instance, err := r.instanceLocked(name)
		if err != nil {
			return fmt.Errorf("initialize %s: %w", name, err)
		}
		binder.Bind(name, instance)
	}

	return nil
}

// InitializeProvider binds a single registered provider into the dispatch
// table. Fails with ErrNotFound if the name is unregistered.
func (r *Registry) InitializeProvider(binder Binder, name string) error {
	if binder == nil {
		return errors.New("binder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	instance, err := r.instanceLocked(name)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", name, err)
	}
	binder.Bind(name, instance)

	return nil
}

// instanceLocked returns the cached instance for name, building it if
// needed. Caller must hold r.mu.
func (r *Registry) instanceLocked(name string) (domain.Provider, error) {
	e, exists := r.entries[name]
	if !exists {
		return nil, fmt.Errorf("provider %s: %w", name, domain.ErrNotFound)
	}

	if e.instance == nil {
		instance, err := e.factory()
		if err != nil {
			return nil, fmt.Errorf("failed to construct provider %s: %w", name, err)
		}
		if instance == nil {
			return nil, fmt.Errorf("factory for provider %s returned nil", name)
		}
		e.instance = instance
	}

	return e.instance, nil
}
