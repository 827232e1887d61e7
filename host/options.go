package host

import (
	"log/slog"

	"github.com/sorcio/wotto/domain/entities"
	"github.com/sorcio/wotto/guest"
	"github.com/sorcio/wotto/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithConfig sets the host configuration. It is validated by NewExecutor.
func WithConfig(cfg entities.Config) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithRegistry replaces the default native entry point registry.
// Middleware and bundles are then entirely up to the caller.
func WithRegistry(registry *guest.Registry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithBundle adds entry points to the default registry.
func WithBundle(bundle guest.Bundle) Option {
	return func(e *Executor) {
		e.bundles = append(e.bundles, bundle)
	}
}

// WithDiagnostics sets the side channel notified of every guest write.
// The default logs through the executor logger.
func WithDiagnostics(diag hostfuncs.Diagnostics) Option {
	return func(e *Executor) {
		if diag != nil {
			e.diag = diag
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}
