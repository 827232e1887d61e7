package host

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/sys"
	"golang.org/x/text/encoding/unicode"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
	"github.com/sorcio/wotto/hostfuncs"
	wazeroadapter "github.com/sorcio/wotto/infrastructure/wazero"
)

type executeFunc func(ctx context.Context, ch *hostfuncs.Channel) error

// run drives one invocation through Init, Execute, Output and Terminate.
func (e *Executor) run(ctx context.Context, entry, module string, input []byte, execute executeFunc) (*entities.Result, error) {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for an invocation slot: %w", err)
	}
	defer e.slots.Release(1)

	logger := e.logger.With("entry", entry)
	if module != "" {
		logger = logger.With("module", module)
	}
	res := &entities.Result{Entry: entry, Module: module}

	logger.DebugContext(ctx, "invocation phase", "phase", entities.PhaseInit)
	ch := hostfuncs.NewChannel(
		hostfuncs.WithCapacity(e.cfg.Capacity),
		hostfuncs.WithDiagnostics(e.diag),
	)
	res.InputTruncated = ch.Reset(input)
	if res.InputTruncated {
		logger.WarnContext(ctx, "input truncated", "length", len(input), "capacity", e.cfg.Capacity)
	}

	logger.DebugContext(ctx, "invocation phase", "phase", entities.PhaseExecute)
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	start := time.Now()
	err := contain(qualifiedName(module, entry), func() error {
		return execute(wazeroadapter.WithChannel(callCtx, ch), ch)
	})
	res.Duration = time.Since(start)

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
		err = nil
	}

	if err != nil {
		res.State = entities.StateFaulted
		res.Err = e.classify(entry, module, err)
		logger.WarnContext(ctx, "invocation faulted", "error", res.Err, "duration", res.Duration)
	} else {
		logger.DebugContext(ctx, "invocation phase", "phase", entities.PhaseOutput)
		res.State = entities.StateCompleted
		res.Output = ch.Output()
		if e.cfg.SanitizeOutput {
			res.Output = sanitize(res.Output)
		}
		res.OutputTruncated = ch.OutputTruncated()
		if res.OutputTruncated {
			logger.WarnContext(ctx, "output truncated", "capacity", e.cfg.Capacity)
		}
	}

	logger.DebugContext(ctx, "invocation phase", "phase", entities.PhaseTerminate, "state", res.State)
	return res, nil
}

// contain runs fn and turns a panic escaping it into a panic trap. Registries
// built without guest.TrapRecoveryMiddleware rely on it.
func contain(entry string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &domainerrors.TrapError{
				Entry:  entry,
				Reason: domainerrors.ReasonPanic,
				Err:    cause,
				Stack:  debug.Stack(),
			}
		}
	}()
	return fn()
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// classify turns a guest failure into a *errors.TrapError.
func (e *Executor) classify(entry, module string, err error) *domainerrors.TrapError {
	var trap *domainerrors.TrapError
	if errors.As(err, &trap) {
		return trap
	}

	name := qualifiedName(module, entry)
	timeout := &domainerrors.TimeoutError{Operation: "invoke", Target: name, Duration: e.cfg.Timeout}

	var exitErr *sys.ExitError
	var abort *wazeroadapter.AbortError
	switch {
	case errors.As(err, &exitErr):
		switch exitErr.ExitCode() {
		case sys.ExitCodeDeadlineExceeded:
			return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonTimeout, Err: timeout}
		case sys.ExitCodeContextCanceled:
			return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonCanceled, Err: context.Canceled}
		default:
			return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonExit, Err: err}
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonTimeout, Err: timeout}
	case errors.Is(err, context.Canceled):
		return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonCanceled, Err: err}
	case errors.As(err, &abort):
		return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonAbort, Err: abort}
	case module != "":
		return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonTrap, Err: err}
	default:
		return &domainerrors.TrapError{Entry: name, Reason: domainerrors.ReasonAbort, Err: err}
	}
}

func qualifiedName(module, entry string) string {
	if module == "" {
		return entry
	}
	return module + "." + entry
}

// sanitize replaces invalid UTF-8 in out with U+FFFD.
func sanitize(out []byte) []byte {
	if utf8.Valid(out) {
		return out
	}
	clean, err := unicode.UTF8.NewDecoder().Bytes(out)
	if err != nil {
		return out
	}
	return clean
}
