// Package internal contains helper utilities that are intentionally private to goSession,
// including secure session id generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function flow orchestrators for every Engine operation
//   - logging: zap logger construction from configuration
//   - rate: Redis-backed fixed-window login and registration throttles
//   - telemetry: OTLP tracer provider for the server binary
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
