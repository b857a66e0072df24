// Package api serves the goSession Engine as JSON over HTTP.
//
// Every route runs behind middleware.Session; all routes except login,
// registration, health and metrics also run behind middleware.Guard. Errors
// are mapped from goSession.KindOf to a status code and rendered as
// {"error": "<message>"}. Internal errors never expose their cause.
package api
