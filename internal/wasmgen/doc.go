// Package wasmgen encodes small WebAssembly modules in the binary format.
//
// It covers the subset needed to build guest modules in-process: function
// types, function imports, one linear memory, exports, active data segments
// and a handful of i32 instructions. It is used by tests and by the
// fault-injection guest, not as a general purpose assembler.
package wasmgen
