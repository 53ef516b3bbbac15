// Package store provides durable key/value persistence for the session core:
// the current token, the serialized user profile, and device-local settings
// such as the biometric preference.
//
// Two implementations share the [Store] contract:
//
//   - [FileStore] — encrypted-at-rest files for single-device deployments.
//     Values are sealed with AES-256-GCM under a key derived from a caller
//     passphrase via argon2id and a per-directory random salt.
//   - [RedisStore] — Redis-backed storage for headless fleet terminals that
//     keep device state in a local Redis.
//
// # Architecture boundaries
//
// This package stores opaque strings. It does NOT interpret tokens, validate
// sessions, or decide what is persisted; the session manager owns the key
// layout and write ordering.
//
// # What this package must NOT do
//
//   - Import fleetgate, token, or api (no upward imports).
//   - Cache decrypted values between calls.
package store
