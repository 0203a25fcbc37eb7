// Package coffer carries the project-wide release identity.
package coffer

// Version is the coffer release version reported by the CLI.
const Version = "0.3.0"
