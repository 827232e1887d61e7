// Package wazero registers the guest exchange ABI with the wazero runtime.
//
// Guests import two functions from the host module (default "wotto"):
//
//	input(ptr, len i32) -> i32   copy up to len input bytes to ptr, return the declared length
//	output(ptr, len i32)         append len bytes at ptr to the output buffer
//
// Both resolve the per-invocation hostfuncs.Channel from the call context,
// so one compiled host module serves every invocation without shared
// buffers. A pointer range outside guest memory panics inside the host
// function, which wazero reports as a trap of the calling invocation.
//
// # Basic Usage
//
//	runtime := wazero.NewRuntime(ctx)
//	err := wazeroadapter.RegisterWithRuntime(ctx, runtime,
//	    wazeroadapter.WithHostModuleName("wotto"),
//	)
//
//	ch := hostfuncs.NewChannel()
//	ch.Reset(input)
//	_, err = fn.Call(wazeroadapter.WithChannel(ctx, ch))
//
// # AssemblyScript
//
// WithAssemblyScript additionally exports print(ptr i32) from the host
// module and abort(msg, file, line, col i32) from "env", the imports an
// AssemblyScript guest expects. abort traps the invocation.
package wazero
