// Package errors provides domain-specific error types for the host.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/sorcio/wotto/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by error types that can describe themselves
// as a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
// Unknown errors are categorized as internal.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// TrapReason classifies why an invocation was aborted.
type TrapReason string

const (
	// ReasonTrap is a wasm runtime trap (out-of-bounds access, unreachable).
	ReasonTrap TrapReason = "trap"
	// ReasonPanic is a recovered panic in a native entry point.
	ReasonPanic TrapReason = "panic"
	// ReasonAbort is an entry point that returned an error.
	ReasonAbort TrapReason = "abort"
	// ReasonTimeout is an invocation that exceeded its deadline.
	ReasonTimeout TrapReason = "timeout"
	// ReasonCanceled is an invocation whose context was canceled.
	ReasonCanceled TrapReason = "canceled"
	// ReasonExit is a guest that called proc_exit with a non-zero code.
	ReasonExit TrapReason = "exit"
)

// TrapError is a contained guest fault. The host that produced it stays
// usable for further invocations.
type TrapError struct {
	Err    error
	Entry  string
	Reason TrapReason
	Stack  []byte
}

func (e *TrapError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Entry, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Entry, e.Reason)
}

func (e *TrapError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fault was a deadline being exceeded.
func (e *TrapError) Timeout() bool {
	return e.Reason == ReasonTimeout
}

// ToErrorDetail implements DetailedError.
func (e *TrapError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "trap", Code: string(e.Reason), Entry: e.Entry, Stack: e.Stack}
	if e.Timeout() {
		detail.Type = "timeout"
		detail.IsTimeout = true
	}
	return detail
}

// NotFoundError is returned when an entry point or module is not registered.
type NotFoundError struct {
	Kind string // "entry point" or "module"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ToErrorDetail implements DetailedError.
func (e *NotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "not_found", Code: e.Name, IsNotFound: true}
}

// SignatureError is returned when a guest export does not have the
// expected () -> () signature.
type SignatureError struct {
	Entry   string
	Params  int
	Results int
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("entry point %q must take no parameters and return nothing, has %d params and %d results",
		e.Entry, e.Params, e.Results)
}

// ToErrorDetail implements DetailedError.
func (e *SignatureError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("signature", e.Error()).WithEntry(e.Entry)
}

// TimeoutError represents a timeout during an operation.
type TimeoutError struct {
	Operation string
	Target    string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s timeout after %v (target: %s)", e.Operation, e.Duration, e.Target)
	}
	return fmt.Sprintf("%s timeout after %v", e.Operation, e.Duration)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// ToErrorDetail implements DetailedError.
func (e *TimeoutError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "timeout", Code: e.Operation, IsTimeout: true}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// SchemaError represents a schema generation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "schema"}
}

// WebLoadReason classifies why a module could not be loaded from a URL.
type WebLoadReason string

const (
	ReasonInvalidURL  WebLoadReason = "url cannot be parsed"
	ReasonRejected    WebLoadReason = "rejected origin"
	ReasonCredentials WebLoadReason = "url cannot contain username or password"
	ReasonInvalidPath WebLoadReason = "invalid path"
	ReasonFetchFailed WebLoadReason = "fetch failed"
	ReasonNotWasm     WebLoadReason = "not a webassembly module"
	ReasonTooLarge    WebLoadReason = "file too large"
)

// WebLoadError is returned when a module URL is refused or its content
// cannot be fetched.
type WebLoadError struct {
	Err    error
	URL    string
	Reason WebLoadReason
}

func (e *WebLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loading %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("loading %s: %s", e.URL, e.Reason)
}

func (e *WebLoadError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WebLoadError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("webload", e.Error()).WithCode(string(e.Reason))
}
