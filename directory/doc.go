// Package directory groups the [goSession.UserDirectory] implementations:
// memory (tests and demos), sqlite (single-node deployments) and postgres.
//
// Every implementation resolves a login against both username and email,
// reports misses with an error wrapping [goSession.ErrUserNotFound], and maps
// uniqueness violations to [goSession.ErrUsernameTaken] or
// [goSession.ErrEmailTaken].
package directory
