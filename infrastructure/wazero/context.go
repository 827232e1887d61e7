package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/sorcio/wotto/hostfuncs"
)

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var (
	channelKey    = &contextKey{name: "channel"}
	moduleNameKey = &contextKey{name: "module_name"}
)

// WithChannel attaches the invocation's exchange channel to ctx.
func WithChannel(ctx context.Context, ch *hostfuncs.Channel) context.Context {
	return context.WithValue(ctx, channelKey, ch)
}

// ChannelFromContext retrieves the exchange channel from ctx.
func ChannelFromContext(ctx context.Context) (*hostfuncs.Channel, bool) {
	ch, ok := ctx.Value(channelKey).(*hostfuncs.Channel)
	return ch, ok && ch != nil
}

// WithModuleName records the canonical guest module name in ctx. Guest
// instances are anonymous, so this is what logs report.
func WithModuleName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, moduleNameKey, name)
}

// ModuleNameFromContext retrieves the guest module name from ctx.
func ModuleNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(moduleNameKey).(string)
	return name, ok
}

// GetModuleName extracts the guest module name from ctx, falling back to
// the instance name.
func GetModuleName(ctx context.Context, mod api.Module) string {
	if name, ok := ModuleNameFromContext(ctx); ok {
		return name
	}
	return mod.Name()
}
