// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunLogout, RunFindSessionsByUser, etc.) accepts
// a typed dependency struct and returns results without side-effects beyond
// those dependencies. Host sentinels, metric IDs and audit event names are
// passed in through the Errors, Metrics and Events fields so this package never
// imports the root module.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, user directory,
// password hasher, rate limiter, audit dispatcher, and metrics. They do NOT own
// any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
