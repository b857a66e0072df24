// Package middleware adapts goSession.Engine to net/http.
//
// # Chain
//
// A typical server wraps its mux as
//
//	RequestID -> RequestLogger -> CORS -> Session -> (Guard on protected routes)
//
// [Session] verifies the signed session cookie and puts the session id, the
// request's network info and its User-Agent on the context. A missing or
// tampered cookie leaves the request anonymous; it is never an error.
// [Guard] calls Engine.Authorize and attaches the account. Rejections answer
// 401; a failing session store answers 500.
//
// # Cookie format
//
// The cookie value is "s:<id>.<sig>" where sig is the unpadded base64url
// HMAC-SHA256 of the id under the first configured secret. Verification
// accepts any configured secret so secrets can be rotated.
//
// # What this package must NOT do
//
//   - Read or write Redis directly (the Engine owns the store).
//   - Decide authorization beyond pass/reject from Engine.Authorize.
package middleware
