package host

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
	"github.com/sorcio/wotto/hostfuncs"
	wazeroadapter "github.com/sorcio/wotto/infrastructure/wazero"
)

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CanonicalName returns the module name for a wasm file: its base name
// without extension. It must be an identifier.
func CanonicalName(file string) (string, error) {
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if !moduleNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid module name %q for %s", name, file)
	}
	return name, nil
}

// LoadModule compiles wasm and stores it under name, replacing any module
// previously loaded under that name. Invocations already running keep the
// module they started with; it is closed when the last of them ends.
func (e *Executor) LoadModule(ctx context.Context, name string, wasm []byte) error {
	if !moduleNamePattern.MatchString(name) {
		return fmt.Errorf("invalid module name %q", name)
	}

	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return fmt.Errorf("failed to compile module %s: %w", name, err)
	}

	e.mu.Lock()
	old, reloaded := e.modules[name]
	e.modules[name] = &loadedModule{compiled: compiled}
	closeOld := reloaded && old.retire()
	e.mu.Unlock()

	if closeOld {
		old.close(ctx)
	}
	e.logger.InfoContext(ctx, "module loaded", "module", name, "reloaded", reloaded, "entry_points", len(entryPoints(compiled)))
	return nil
}

// LoadModuleFile loads the wasm file under its canonical name,
// which it returns.
func (e *Executor) LoadModuleFile(ctx context.Context, file string) (string, error) {
	name, err := CanonicalName(file)
	if err != nil {
		return "", err
	}
	wasm, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read module: %w", err)
	}
	if err := e.LoadModule(ctx, name, wasm); err != nil {
		return "", err
	}
	return name, nil
}

// LoadModuleURL fetches the wasm module at rawURL and loads it under the
// canonical name of the last path segment, which it returns. The URL must
// belong to one of Config.AllowedOrigins and carry no credentials; the
// body must fit Config.MaxModuleSize and start with the wasm magic.
func (e *Executor) LoadModuleURL(ctx context.Context, rawURL string) (string, error) {
	u, err := e.web.Check(rawURL)
	if err != nil {
		return "", err
	}
	name, err := CanonicalName(path.Base(u.Path))
	if err != nil {
		return "", &domainerrors.WebLoadError{URL: rawURL, Reason: domainerrors.ReasonInvalidPath, Err: err}
	}

	wasm, err := e.web.Fetch(ctx, u)
	if err != nil {
		return "", err
	}
	e.logger.DebugContext(ctx, "module fetched", "url", rawURL, "bytes", len(wasm))

	if err := e.LoadModule(ctx, name, wasm); err != nil {
		return "", err
	}
	return name, nil
}

// ModuleEntryPoints returns the sorted exports of module that can be
// invoked, that is functions taking and returning nothing.
func (e *Executor) ModuleEntryPoints(module string) ([]string, error) {
	m, err := e.acquire(module)
	if err != nil {
		return nil, err
	}
	defer e.release(context.Background(), m)
	return entryPoints(m.compiled), nil
}

func entryPoints(compiled wazero.CompiledModule) []string {
	var names []string
	for name, def := range compiled.ExportedFunctions() {
		if len(def.ParamTypes()) == 0 && len(def.ResultTypes()) == 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// loadedModule is a compiled module and the invocations using it. All
// fields but compiled are guarded by Executor.mu.
type loadedModule struct {
	compiled wazero.CompiledModule
	refs     int
	retired  bool
	closed   bool
}

// retire marks m as replaced. It reports whether the caller must close
// m now, which is when no invocation holds it.
func (m *loadedModule) retire() bool {
	m.retired = true
	return m.unused()
}

// unused marks m closed once it is retired and unreferenced, reporting
// whether this call did so.
func (m *loadedModule) unused() bool {
	if !m.retired || m.refs > 0 || m.closed {
		return false
	}
	m.closed = true
	return true
}

func (m *loadedModule) close(ctx context.Context) {
	_ = m.compiled.Close(context.WithoutCancel(ctx))
}

// acquire returns module and holds it open until release.
func (e *Executor) acquire(module string) (*loadedModule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.modules[module]
	if !ok {
		return nil, &domainerrors.NotFoundError{Kind: "module", Name: module}
	}
	m.refs++
	return m, nil
}

func (e *Executor) release(ctx context.Context, m *loadedModule) {
	e.mu.Lock()
	m.refs--
	closeNow := m.unused()
	e.mu.Unlock()

	if closeNow {
		m.close(ctx)
	}
}

// InvokeModule runs the export entry of a loaded wasm module with input.
// Each call gets a fresh anonymous instance, closed when the call ends.
//
// The returned error is non-nil only when the invocation could not be
// dispatched: unknown module or export, or an export that does not have
// the () -> () signature.
func (e *Executor) InvokeModule(ctx context.Context, module, entry string, input []byte) (*entities.Result, error) {
	m, err := e.acquire(module)
	if err != nil {
		return nil, err
	}
	defer e.release(ctx, m)
	compiled := m.compiled

	def, ok := compiled.ExportedFunctions()[entry]
	if !ok {
		return nil, &domainerrors.NotFoundError{Kind: "entry point", Name: module + "." + entry}
	}
	if len(def.ParamTypes()) != 0 || len(def.ResultTypes()) != 0 {
		return nil, &domainerrors.SignatureError{
			Entry:   module + "." + entry,
			Params:  len(def.ParamTypes()),
			Results: len(def.ResultTypes()),
		}
	}

	return e.run(ctx, entry, module, input, func(ctx context.Context, _ *hostfuncs.Channel) error {
		ctx = wazeroadapter.WithModuleName(ctx, module)
		// Instances are anonymous: names would collide across concurrent calls.
		cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize")
		mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
		if err != nil {
			return err
		}
		defer closeInstance(ctx, mod)

		_, err = mod.ExportedFunction(entry).Call(ctx)
		return err
	})
}

// closeInstance closes mod even when ctx is already done.
func closeInstance(ctx context.Context, mod api.Module) {
	_ = mod.Close(context.WithoutCancel(ctx))
}
