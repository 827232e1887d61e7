// Package ports defines interfaces for infrastructure operations.
// Domain logic depends on these abstractions and infrastructure adapters
// implement them.
package ports
