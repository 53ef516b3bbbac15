// Package api is the typed HTTP client for the fleet backend REST API:
// credential exchange, vehicles, live positions, vehicle groups, repair
// scheduling, and vehicle documents.
//
// Every call is a single request/response round-trip with JSON bodies. The
// client attaches the terminal's device ID and, when a token source is
// configured, a bearer Authorization header.
//
// # Architecture boundaries
//
// This package speaks HTTP and maps status codes to errors. It does NOT hold
// session state, persist tokens, or decide retry policy; the session
// manager composes those on top.
package api
