// Package session provides Redis-backed session persistence with a per-user
// secondary index.
//
// # Storage layout
//
// Each session is a JSON value at <prefix><id>. The id itself is never part of
// the value; [Store] recovers it from the key. Authenticated sessions are also
// members of a Redis SET keyed by owner, so listing a user's sessions costs one
// SMEMBERS plus one pipelined GET instead of a keyspace scan. Index members
// whose record has expired are pruned lazily on read.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It
// does NOT resolve request metadata, check passwords, or decide who may read
// or revoke a session. Those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goSession, metadata, or middleware (no upward imports).
//   - Perform application-level authorization decisions.
//   - Store plaintext secrets in [Session] fields.
package session
