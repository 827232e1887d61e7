package guest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	domainerrors "github.com/sorcio/wotto/domain/errors"
)

// TrapRecoveryMiddleware returns a middleware that converts a panic inside
// an entry point into a *errors.TrapError, the native counterpart of a wasm
// trap. The invocation faults; the host keeps running.
func TrapRecoveryMiddleware() Middleware {
	return func(next EntryPoint) EntryPoint {
		return func(ctx context.Context, abi ABI) (err error) {
			defer func() {
				if r := recover(); r != nil {
					cause, ok := r.(error)
					if !ok {
						cause = fmt.Errorf("%v", r)
					}
					err = &domainerrors.TrapError{
						Entry:  EntryName(ctx),
						Reason: domainerrors.ReasonPanic,
						Err:    cause,
						Stack:  debug.Stack(),
					}
				}
			}()
			return next(ctx, abi)
		}
	}
}

// LoggingMiddleware returns a middleware that logs entry point invocations
// at debug level and failures at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next EntryPoint) EntryPoint {
		return func(ctx context.Context, abi ABI) error {
			name := EntryName(ctx)
			start := time.Now()
			logger.DebugContext(ctx, "invoking entry point", "entry", name)
			err := next(ctx, abi)
			if err != nil {
				logger.WarnContext(ctx, "entry point failed", "entry", name, "error", err)
			} else {
				logger.DebugContext(ctx, "entry point completed", "entry", name, "duration", time.Since(start))
			}
			return err
		}
	}
}
