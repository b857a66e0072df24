// Package rate provides Redis-backed fixed-window counters for failed logins
// and account registrations.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - "gl:" counts failed logins per identifier (case-folded)
//   - "gli:" counts failed logins per IP
//   - "gai:" counts account registrations per IP
//
// # What this package must NOT do
//
//   - Decide what counts as a failure (the login flow does).
//   - Be imported outside the goSession module.
package rate
