package ports

import (
	"context"

	"github.com/sorcio/wotto/domain/entities"
)

// Invoker runs entry points and manages loaded guest modules.
type Invoker interface {
	// Invoke runs a native entry point.
	Invoke(ctx context.Context, entry string, input []byte) (*entities.Result, error)

	// InvokeModule runs an export of a loaded wasm module.
	InvokeModule(ctx context.Context, module, entry string, input []byte) (*entities.Result, error)

	// LoadModuleFile loads a wasm file and returns its module name.
	LoadModuleFile(ctx context.Context, path string) (string, error)

	// LoadModuleURL fetches a wasm module from an allowed origin and
	// returns its module name.
	LoadModuleURL(ctx context.Context, rawURL string) (string, error)

	// EntryPoints returns the sorted native entry point names.
	EntryPoints() []string

	// Modules returns the sorted names of the loaded modules.
	Modules() []string
}
