package fleetgate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the credential exchange or the request fails in transit. The wrapped
	// detail carries the backend's own message when one was provided.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOperationInFlight is returned when Login or Restore is invoked
	// while another session operation is still running.
	ErrOperationInFlight = errors.New("session operation already in flight")
	// ErrAlreadyRestored is returned by a second Restore call; restore runs
	// exactly once per process lifetime.
	ErrAlreadyRestored = errors.New("session already restored")
	// ErrNotReady is returned by Login before Restore has resolved the
	// initial session state.
	ErrNotReady = errors.New("session not restored yet")
	// ErrPersistence wraps durable-store failures surfaced by session
	// operations.
	ErrPersistence = errors.New("session store failure")
	// ErrBiometricUnavailable is the umbrella condition for enabling
	// biometrics on a device that cannot satisfy a challenge.
	ErrBiometricUnavailable = errors.New("biometric authentication unavailable")
	// ErrNoBiometricHardware reports the hardware-missing case distinctly.
	ErrNoBiometricHardware = fmt.Errorf("%w: hardware not present", ErrBiometricUnavailable)
	// ErrBiometricNotEnrolled reports the no-enrollment case distinctly.
	ErrBiometricNotEnrolled = fmt.Errorf("%w: no credentials enrolled", ErrBiometricUnavailable)
)
