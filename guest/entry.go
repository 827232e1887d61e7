package guest

import (
	"context"

	"github.com/sorcio/wotto/hostfuncs"
)

// ABI is the guest view of the exchange channel.
// *hostfuncs.Channel implements it.
type ABI interface {
	// Read copies up to len(dst) bytes of input into dst and returns the
	// declared input length, which may exceed len(dst).
	Read(dst []byte) int

	// Write appends src to the output, dropping what does not fit.
	Write(src []byte) hostfuncs.WriteResult
}

var _ ABI = (*hostfuncs.Channel)(nil)

// EntryPoint is a named guest computation. Returning an error aborts the
// invocation; the dispatcher reports it as faulted.
type EntryPoint func(ctx context.Context, abi ABI) error

// Middleware wraps an EntryPoint to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next EntryPoint) EntryPoint

type entryNameKey struct{}

// WithEntryName returns a context carrying the name of the entry point
// being invoked.
func WithEntryName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, entryNameKey{}, name)
}

// EntryName returns the entry point name stored in ctx, or "unknown".
func EntryName(ctx context.Context) string {
	if name, ok := ctx.Value(entryNameKey{}).(string); ok {
		return name
	}
	return "unknown"
}
