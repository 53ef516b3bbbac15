// Package device owns the durable installation identity: a UUID minted on
// first boot, persisted in the session store, and attached to every backend
// request and audit event.
//
// # What this package must NOT do
//
//   - Treat the device ID as a secret or a credential.
//   - Be imported by anything outside the fleetgate module.
package device
