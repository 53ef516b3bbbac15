package fleetgate

import "encoding/json"

// UserProfile is the identity snapshot captured at login time. It is owned
// by the Manager, persisted alongside the token, and never refreshed
// independently; a new login replaces it wholesale.
type UserProfile struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the profile carries the given role string.
func (u *UserProfile) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SessionState is the derived tri-state session value. It is computed from
// (token, current time) plus the loading flag and never stored.
type SessionState uint8

const (
	// StateUnauthenticated means no token, or a token past its expiry.
	StateUnauthenticated SessionState = iota
	// StateLoading means a restore or login is in flight.
	StateLoading
	// StateAuthenticated means an unexpired token is held.
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// GateDecision is the ephemeral outcome of a biometric gate evaluation.
// It is recomputed on every mount and never persisted.
type GateDecision uint8

const (
	// DecisionPending means evaluation has not finished.
	DecisionPending GateDecision = iota
	// DecisionGranted exposes the protected content.
	DecisionGranted
	// DecisionDenied blocks the protected content; recoverable via Retry
	// unless the session itself was invalid.
	DecisionDenied
)

func (d GateDecision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	default:
		return "pending"
	}
}

func encodeProfile(u *UserProfile) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeProfile(raw string) (*UserProfile, error) {
	var u UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
