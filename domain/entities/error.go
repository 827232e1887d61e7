package entities

import "strings"

// ErrorDetail is the serializable description of why an invocation did
// not complete. The harness prints it in JSON mode.
//
// Type is one of "trap", "timeout", "config", "not_found", "signature" or
// "internal". Code refines it: the trap reason, the missing name, the
// offending config field.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`

	// Entry is the qualified entry point, when one is involved.
	Entry string `json:"entry,omitempty"`

	// Stack is the goroutine stack of a recovered native panic.
	Stack []byte `json:"stack,omitempty"`

	IsTimeout  bool `json:"is_timeout,omitempty"`
	IsNotFound bool `json:"is_not_found,omitempty"`
}

// Error renders "type: message [code]". The internal type is left out.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Type != "" && e.Type != "internal" {
		b.WriteString(e.Type)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	return b.String()
}

// NewErrorDetail returns a detail of the given type.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{Type: errorType, Message: message}
}

// WithCode sets Code and returns e.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}

// WithEntry sets Entry and returns e.
func (e *ErrorDetail) WithEntry(entry string) *ErrorDetail {
	e.Entry = entry
	return e
}
