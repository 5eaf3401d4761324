// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - IndexAdapter: Upsert/delete against the search backend
//   - SessionStore: Chat session persistence with find/update-by-filter semantics
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - EmbeddingProvider: Generates vector embeddings. Without it, records
//     are indexed without vectors.
//   - SpendingRecorder: Receives cost/usage entries. Without it, spend
//     accounting is computed but not persisted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
