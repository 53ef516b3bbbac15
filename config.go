package fleetgate

import (
	"errors"
	"strings"
	"time"
)

// Config defines the fleetgate session core configuration.
//
// Config instances are intended to be set up during initialization and then
// treated as immutable.
type Config struct {
	API       APIConfig
	Biometric BiometricConfig
	Guard     GuardConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig configures the backend REST client.
type APIConfig struct {
	// BaseURL is the fleet backend root, e.g. "https://fleet.example:8080".
	BaseURL string
	// Timeout bounds every backend request.
	Timeout time.Duration
	// UserAgent overrides the default request User-Agent.
	UserAgent string
}

/*
====================================
BIOMETRIC CONFIG
====================================
*/

// BiometricConfig configures the gate's platform challenge.
type BiometricConfig struct {
	PromptMessage       string
	FallbackLabel       string
	AllowDeviceFallback bool
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig maps session validity onto navigation regions. Routes are
// slash-separated segment paths; a route belongs to the unauthenticated
// region when its first segment equals AuthRegion.
type GuardConfig struct {
	AuthRegion   string
	LoginRoute   string
	LandingRoute string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig configures asynchronous audit event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the lock-free counter set.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration used when the Builder receives no
// explicit config. API.BaseURL must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   15 * time.Second,
			UserAgent: "fleetgate",
		},
		Biometric: BiometricConfig{
			PromptMessage:       "Confirm your identity",
			FallbackLabel:       "Use passcode",
			AllowDeviceFallback: true,
		},
		Guard: GuardConfig{
			AuthRegion:   "(auth)",
			LoginRoute:   "/(auth)/login",
			LandingRoute: "/(tabs)/dashboard",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Biometric
	if strings.TrimSpace(c.Biometric.PromptMessage) == "" {
		return errors.New("Biometric PromptMessage must not be empty")
	}

	// Guard
	if c.Guard.AuthRegion == "" {
		return errors.New("Guard AuthRegion must not be empty")
	}
	if c.Guard.LoginRoute == "" || c.Guard.LandingRoute == "" {
		return errors.New("Guard LoginRoute and LandingRoute must not be empty")
	}
	if firstSegment(c.Guard.LoginRoute) != c.Guard.AuthRegion {
		return errors.New("Guard LoginRoute must live in the AuthRegion")
	}
	if firstSegment(c.Guard.LandingRoute) == c.Guard.AuthRegion {
		return errors.New("Guard LandingRoute must live outside the AuthRegion")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a full copy.
	return cfg
}
