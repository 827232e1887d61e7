package wazero

import (
	"errors"
	"fmt"
)

// ErrNoChannel is raised when a host function runs without a channel in
// its context.
var ErrNoChannel = errors.New("no exchange channel in context")

// MemoryAccessError is raised when a guest passes a pointer range that does
// not fit in its linear memory.
type MemoryAccessError struct {
	Func   string
	Ptr    uint32
	Len    uint32
	Memory uint32
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("%s: range [%d, %d) outside guest memory of %d bytes",
		e.Func, e.Ptr, uint64(e.Ptr)+uint64(e.Len), e.Memory)
}

// AbortError is raised by the AssemblyScript env.abort import.
type AbortError struct {
	Message string
	File    string
	Line    uint32
	Column  uint32
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("guest aborted: %s at %s:%d:%d", e.Message, e.File, e.Line, e.Column)
}
