// Package driving defines the interfaces that callers use to drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement these interfaces, and entry points (CLI, hooks
// fired by the source-of-truth store) depend on them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
