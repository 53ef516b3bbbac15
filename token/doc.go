// Package token decodes the payload of compact session tokens issued by the
// fleet backend, without verifying their signature.
//
// # Fail-open decoding
//
// [Decode] never fails: malformed input (wrong segment count, bad base64url,
// invalid JSON) yields an empty [Claims] map. Client-side decoding exists only
// to avoid presenting obviously-expired sessions; authorization is always
// re-enforced server-side, so silent degradation on a corrupt token is
// acceptable and deliberate. An empty claim set reads as a token with no
// expiry, which downstream validity checks treat as not-yet-expired.
//
// # What this package must NOT do
//
//   - Verify signatures or issue tokens (the backend owns both).
//   - Import fleetgate, store, or api (no upward imports).
package token
