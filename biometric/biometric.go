package biometric

import (
	"context"
	"errors"
)

// ErrNoHardware is returned by [CheckAvailability] when the device has no
// biometric hardware.
var ErrNoHardware = errors.New("biometric: hardware not present")

// ErrNotEnrolled is returned by [CheckAvailability] when hardware exists but
// no biometric credential is enrolled.
var ErrNotEnrolled = errors.New("biometric: no credentials enrolled")

// Challenge configures a single blocking biometric prompt.
type Challenge struct {
	PromptMessage       string
	FallbackLabel       string
	AllowDeviceFallback bool
}

// Outcome is the result of a biometric prompt. A cancelled prompt reports
// Success=false, Cancelled=true; an explicit mismatch reports both false.
type Outcome struct {
	Success   bool
	Cancelled bool
}

// Probe answers the two independent capability questions the account
// settings flow needs before the biometric preference may be enabled.
type Probe interface {
	HasHardware(ctx context.Context) (bool, error)
	IsEnrolled(ctx context.Context) (bool, error)
}

// Authenticator is a Probe that can also run the platform challenge. The
// prompt blocks until the user responds; it is not cancellable once shown.
type Authenticator interface {
	Probe
	Authenticate(ctx context.Context, ch Challenge) (Outcome, error)
}

// CheckAvailability probes hardware then enrollment, returning nil only when
// both are satisfied. The two failure modes stay distinguishable so callers
// can explain which condition was unmet.
func CheckAvailability(ctx context.Context, p Probe) error {
	hw, err := p.HasHardware(ctx)
	if err != nil {
		return err
	}
	if !hw {
		return ErrNoHardware
	}

	enrolled, err := p.IsEnrolled(ctx)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}
