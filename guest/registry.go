package guest

import (
	"context"
	"fmt"
	"sort"

	domainerrors "github.com/sorcio/wotto/domain/errors"
)

// Registry is an immutable collection of named entry points.
// Once created via NewRegistry, entry points cannot be added or removed,
// so lookups need no locking.
type Registry struct {
	entries map[string]EntryPoint
	names   []string // sorted for consistent iteration
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	entries    map[string]EntryPoint
	middleware []Middleware
	errors     []error
}

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*registryBuilder)

// NewRegistry creates an immutable Registry with the given options.
// Returns an error if any entry point name is registered twice.
//
// Example usage:
//
//	registry, err := guest.NewRegistry(
//	    guest.WithMiddleware(guest.TrapRecoveryMiddleware()),
//	    guest.WithBundle(guest.Builtins()),
//	    guest.WithEntryPoint("echo", echo),
//	)
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	b := &registryBuilder{
		entries: make(map[string]EntryPoint),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	wrapped := make(map[string]EntryPoint, len(b.entries))
	for name, entry := range b.entries {
		ep := entry
		// Apply in reverse so the first middleware wraps outermost.
		for i := len(b.middleware) - 1; i >= 0; i-- {
			ep = b.middleware[i](ep)
		}
		wrapped[name] = ep
	}

	return &Registry{
		entries: wrapped,
		names:   names,
	}, nil
}

// Invoke runs the named entry point against abi.
// Returns *errors.NotFoundError if no entry point has that name.
func (r *Registry) Invoke(ctx context.Context, name string, abi ABI) error {
	entry, ok := r.entries[name]
	if !ok {
		return &domainerrors.NotFoundError{Kind: "entry point", Name: name}
	}
	return entry(WithEntryName(ctx, name), abi)
}

// Has returns true if an entry point with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns a sorted list of all registered entry point names.
func (r *Registry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

func (b *registryBuilder) addEntryPoint(name string, entry EntryPoint) error {
	if name == "" {
		return fmt.Errorf("entry point name cannot be empty")
	}
	if entry == nil {
		return fmt.Errorf("entry point %q is nil", name)
	}
	if _, exists := b.entries[name]; exists {
		return fmt.Errorf("duplicate entry point name: %q", name)
	}
	b.entries[name] = entry
	return nil
}

// WithEntryPoint registers entry under name.
func WithEntryPoint(name string, entry EntryPoint) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addEntryPoint(name, entry); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithBundle registers every entry point of bundle.
// Names are added in sorted order so duplicate errors are deterministic.
func WithBundle(bundle Bundle) RegistryOption {
	return func(b *registryBuilder) {
		entries := bundle.EntryPoints()
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := b.addEntryPoint(name, entries[name]); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
