// Package goSession provides cookie-based, server-side session
// authentication backed by Redis: account registration, credential login,
// enumeration and revocation of a user's sessions, and a guard that resolves
// the account behind a request.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Request-scoped inputs (the session
// id from the cookie, client address, user agent) travel on the context; see
// [WithSessionID], [WithRequestInfo] and [WithUserAgent].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config],
// and value types ([Account], [LoginResult]). Flow orchestration, rate
// limiting and audit dispatch live under internal/. Session persistence is in
// the session package, login metadata in metadata, and HTTP concerns in
// middleware and api.
//
// # What this package must NOT do
//
//   - Read or write cookies. The transport owns the session handle.
//   - Cache accounts between requests.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
