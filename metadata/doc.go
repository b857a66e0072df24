// Package metadata derives the device and approximate location snapshot that
// is stored with a session at login.
//
// [Resolver.Resolve] never fails. Lookup misses and lookup errors degrade to
// the "Unknown" placeholders of package session.
//
// # Architecture boundaries
//
// The resolver consumes a [RequestInfo] value rather than an *http.Request so
// it can be driven by any transport. Geolocation and user-agent parsing sit
// behind [GeoLocator] and [DeviceDetector].
package metadata
