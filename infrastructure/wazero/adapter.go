package wazero

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sorcio/wotto/hostfuncs"
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives AssemblyScript print output and host function errors.
	Logger *slog.Logger

	// ModuleName is the host module name (default: "wotto").
	ModuleName string

	// AssemblyScript enables the print and env.abort imports.
	AssemblyScript bool
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithHostModuleName sets the host module name (default: "wotto").
func WithHostModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		if name != "" {
			c.ModuleName = name
		}
	}
}

// WithLogger sets the logger used by the host functions.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithAssemblyScript enables the AssemblyScript imports.
func WithAssemblyScript(enabled bool) AdapterOption {
	return func(c *AdapterConfig) {
		c.AssemblyScript = enabled
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: "wotto",
		Logger:     slog.Default(),
	}
}

var (
	i32     = api.ValueTypeI32
	ptrLen  = []api.ValueType{i32, i32}
	oneI32  = []api.ValueType{i32}
	noValue = []api.ValueType{}
)

// RegisterWithRuntime instantiates the host module exporting input and
// output, plus the AssemblyScript imports when enabled.
//
// Example:
//
//	err := wazero.RegisterWithRuntime(ctx, runtime,
//	    wazero.WithHostModuleName("wotto"),
//	)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(input), ptrLen, oneI32).
		WithParameterNames("ptr", "len").
		Export("input")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(output), ptrLen, noValue).
		WithParameterNames("ptr", "len").
		Export("output")

	if cfg.AssemblyScript {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				asPrint(ctx, mod, stack, cfg.Logger)
			}), oneI32, noValue).
			WithParameterNames("ptr").
			Export("print")
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return err
	}

	if cfg.AssemblyScript {
		_, err := runtime.NewHostModuleBuilder("env").
			NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(asAbort),
				[]api.ValueType{i32, i32, i32, i32}, noValue).
			WithParameterNames("message", "file", "line", "column").
			Export("abort").
			Instantiate(ctx)
		return err
	}
	return nil
}

// input implements input(ptr, len) -> declared_len.
func input(ctx context.Context, mod api.Module, stack []uint64) {
	ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	ch := mustChannel(ctx)
	dst := guestRange(mod, "input", ptr, length)
	stack[0] = api.EncodeU32(uint32(ch.Read(dst))) //nolint:gosec // G115: declared length is bounded by channel capacity
}

// output implements output(ptr, len).
func output(ctx context.Context, mod api.Module, stack []uint64) {
	ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	ch := mustChannel(ctx)
	src := guestRange(mod, "output", ptr, length)
	ch.Write(src)
}

func mustChannel(ctx context.Context) *hostfuncs.Channel {
	ch, ok := ChannelFromContext(ctx)
	if !ok {
		panic(ErrNoChannel)
	}
	return ch
}

// guestRange returns a view of guest memory, or panics with a
// *MemoryAccessError which wazero turns into a trap.
func guestRange(mod api.Module, fn string, ptr, length uint32) []byte {
	mem := mod.Memory()
	if mem == nil {
		panic(&MemoryAccessError{Func: fn, Ptr: ptr, Len: length})
	}
	buf, ok := mem.Read(ptr, length)
	if !ok {
		panic(&MemoryAccessError{Func: fn, Ptr: ptr, Len: length, Memory: mem.Size()})
	}
	return buf
}
