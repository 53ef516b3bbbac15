// Package biometric abstracts the device biometric capability: hardware
// presence, credential enrollment, and the blocking authentication prompt.
//
// The platform integration (fingerprint reader, face unlock, OS keyguard) is
// supplied by the host application as an [Authenticator]; this module only
// defines the contract and ships [Static] for tests and for headless fleet
// terminals without biometric hardware.
//
// # What this package must NOT do
//
//   - Decide whether a challenge is required (the gate owns that policy).
//   - Touch session state or persistence.
package biometric
