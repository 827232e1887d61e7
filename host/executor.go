package host

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
	"github.com/sorcio/wotto/domain/ports"
	"github.com/sorcio/wotto/guest"
	"github.com/sorcio/wotto/guest/faultinject"
	"github.com/sorcio/wotto/hostfuncs"
	wazeroadapter "github.com/sorcio/wotto/infrastructure/wazero"
	"github.com/sorcio/wotto/infrastructure/webload"
)

var _ ports.Invoker = (*Executor)(nil)

// Executor dispatches invocations to native entry points and wasm guests.
// It is safe for concurrent use; Config.Concurrency bounds how many
// invocations run at once.
type Executor struct {
	cfg      entities.Config
	runtime  wazero.Runtime
	registry *guest.Registry
	bundles  []guest.Bundle
	diag     hostfuncs.Diagnostics
	logger   *slog.Logger
	slots    *semaphore.Weighted
	web      *webload.Fetcher

	mu      sync.RWMutex
	modules map[string]*loadedModule
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		cfg:     entities.DefaultConfig(),
		logger:  slog.Default(),
		modules: make(map[string]*loadedModule),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.diag == nil {
		e.diag = hostfuncs.LogDiagnostics{Logger: e.logger}
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, configError(err)
	}

	if e.registry == nil {
		reg, err := e.defaultRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}
	e.slots = semaphore.NewWeighted(e.cfg.Concurrency)
	e.web = webload.NewFetcher(
		webload.WithAllowedOrigins(e.cfg.AllowedOrigins...),
		webload.WithMaxSize(e.cfg.MaxModuleSize),
	)

	rtConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(e.cfg.MemoryLimitPages).
		WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	e.runtime = rt

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasi: %w", err)
	}

	err := wazeroadapter.RegisterWithRuntime(ctx, rt,
		wazeroadapter.WithHostModuleName(e.cfg.HostModule),
		wazeroadapter.WithLogger(e.logger),
		wazeroadapter.WithAssemblyScript(e.cfg.AssemblyScript),
	)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	if e.cfg.AllowFaultInjection {
		if err := e.LoadModule(ctx, faultinject.ModuleName, faultinject.Module()); err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}

	return e, nil
}

func (e *Executor) defaultRegistry() (*guest.Registry, error) {
	opts := []guest.RegistryOption{
		guest.WithMiddleware(guest.LoggingMiddleware(e.logger), guest.TrapRecoveryMiddleware()),
		guest.WithBundle(guest.Builtins()),
	}
	for _, b := range e.bundles {
		opts = append(opts, guest.WithBundle(b))
	}
	if e.cfg.AllowFaultInjection {
		opts = append(opts, guest.WithBundle(faultinject.Bundle()))
	}
	return guest.NewRegistry(opts...)
}

// Config returns the validated configuration.
func (e *Executor) Config() entities.Config {
	return e.cfg
}

// EntryPoints returns the sorted names of the native entry points.
func (e *Executor) EntryPoints() []string {
	return e.registry.Names()
}

// Modules returns the sorted names of the loaded wasm modules.
func (e *Executor) Modules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.modules))
	for name := range e.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases resources held by the executor.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	for name, m := range e.modules {
		m.closed = true
		err = multierr.Append(err, m.compiled.Close(ctx))
		delete(e.modules, name)
	}
	return multierr.Append(err, e.runtime.Close(ctx))
}

// Invoke runs the native entry point entry with input.
//
// The returned error is non-nil only when the invocation could not be
// dispatched (unknown entry point, context done before a slot was free).
// Guest faults are reported in Result.
func (e *Executor) Invoke(ctx context.Context, entry string, input []byte) (*entities.Result, error) {
	if !e.registry.Has(entry) {
		return nil, &domainerrors.NotFoundError{Kind: "entry point", Name: entry}
	}
	return e.run(ctx, entry, "", input, func(ctx context.Context, ch *hostfuncs.Channel) error {
		return e.registry.Invoke(ctx, entry, ch)
	})
}
