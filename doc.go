// Package fleetgate provides the session and security core for fleet
// terminal clients: persisted sign-in with encrypted-at-rest storage,
// unverified token inspection, a biometric re-authentication gate, and a
// route guard that keeps navigation consistent with session state.
//
// The package is designed for concurrent client workloads: Manager methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build], and the restore/login/logout trio is serialized so that
// at most one session mutation is ever in flight.
//
// # Architecture boundaries
//
// fleetgate is the public surface. It exposes [Manager], [Builder],
// [Config], [Gate], [Guard], and value types (UserProfile, AuditEvent,
// SessionState). Token decoding lives in token, durable storage behind the
// [github.com/openfleet/fleetgate/store.Store] interface, platform
// biometrics behind [github.com/openfleet/fleetgate/biometric.Authenticator],
// and the backend REST client in api.
//
// # What this package must NOT do
//
//   - Verify token signatures. The client decodes for display and expiry
//     only; the backend is the sole verifier.
//   - Expose store keys, ciphertext layout, or the HTTP transport in its
//     public API.
//   - Block a session mutation on a slow audit sink; audit dispatch is
//     buffered and lossy by configuration.
//
// # Failure posture
//
// Decoding a token never fails: garbage decodes to empty claims, and
// validity consumes that same decode, so a token the client cannot parse
// passes through to the backend, which is the sole verifier. What the
// client does refuse is a stale expiry it can positively see: an "exp"
// claim that is unreadable or not strictly in the future is expired, and
// expiry only ever resolves to a forced sign-out, never an error.
package fleetgate
