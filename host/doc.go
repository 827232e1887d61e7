// Package host runs guest entry points under the exchange contract.
//
// An Executor owns a wazero runtime with the ABI host module registered, a
// registry of native entry points and a table of compiled wasm modules.
// Every invocation goes through the same lifecycle:
//
//	Init       fresh channel, input installed (truncated to capacity)
//	Execute    guest runs synchronously under the configured timeout
//	Output     final output captured, optionally sanitized
//	Terminate  per-invocation resources released
//
// and ends Completed or Faulted. Traps, panics, entry point errors,
// timeouts and cancellation are contained in the Result; they never crash
// the host or leak into the next invocation.
package host
