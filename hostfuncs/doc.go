// Package hostfuncs implements the host side of the guest data exchange:
// a bounded input buffer the guest reads from and a bounded, append-only
// output buffer it writes to.
//
// The implementations have no WASM runtime dependencies. The same Channel
// backs native Go entry points and wasm guests wired up through
// infrastructure/wazero.
package hostfuncs
