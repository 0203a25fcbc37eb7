// Package types defines the public contract of the coffer state engine:
// the versioned Document and its reserved metadata, the Migration unit
// contract, the Registry, Executor and Backups interfaces, result value
// objects, and the standard error values shared across the engine.
package types
