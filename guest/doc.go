// Package guest defines native entry points and the registry that
// dispatches to them by name.
//
// An entry point sees the exchange channel only through the ABI
// interface: a bounded read of the input and an append-only write of the
// output. The same contract is exposed to wasm guests as the host module
// imports registered by infrastructure/wazero.
//
// The built-in entry points are:
//   - rev: reverses the input at UTF-8 sequence granularity
//   - cp: writes the decimal codepoints of the input, space separated
//
// Fault-injection entry points live in guest/faultinject and are never
// part of Builtins.
package guest
