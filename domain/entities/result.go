package entities

import (
	"time"
)

// Phase is a step of the invocation lifecycle.
type Phase int

const (
	// PhaseInit resets the channel and installs the input.
	PhaseInit Phase = iota
	// PhaseExecute runs the guest logic synchronously.
	PhaseExecute
	// PhaseOutput captures the final output buffer.
	PhaseOutput
	// PhaseTerminate releases per-invocation resources.
	PhaseTerminate
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseExecute:
		return "execute"
	case PhaseOutput:
		return "output"
	case PhaseTerminate:
		return "terminate"
	}
	return "unknown"
}

// State is the terminal state of an invocation.
type State string

const (
	// StateCompleted means the guest returned and its output was captured.
	StateCompleted State = "completed"

	// StateFaulted means the invocation was aborted by a trap. No partial
	// output is guaranteed.
	StateFaulted State = "faulted"
)

// Result is the outcome of one invocation.
type Result struct {
	// Entry is the name of the invoked entry point.
	Entry string

	// Module is the guest module name, empty for native entry points.
	Module string

	// State is Completed or Faulted.
	State State

	// Output holds the captured output. Nil when the invocation faulted.
	Output []byte

	// InputTruncated reports that the input was cut to the buffer capacity
	// before the guest ran.
	InputTruncated bool

	// OutputTruncated reports that at least one write dropped bytes.
	OutputTruncated bool

	// Duration is the time spent in the execute phase.
	Duration time.Duration

	// Err describes the fault. Nil when State is Completed.
	Err error
}

// Completed reports whether the invocation ran to completion.
func (r *Result) Completed() bool {
	return r.State == StateCompleted
}

// Faulted reports whether the invocation was aborted.
func (r *Result) Faulted() bool {
	return r.State == StateFaulted
}
