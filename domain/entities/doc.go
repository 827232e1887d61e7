// Package entities provides the core domain types shared by the host,
// the guest registry and the command-line harness: configuration, the
// invocation lifecycle and its result.
package entities
