package biometric

import (
	"context"
	"sync"
)

// Static is a scripted Authenticator for tests and for headless terminals
// where no biometric hardware exists. Outcomes are consumed in order; once
// exhausted, the last outcome repeats. With no outcomes configured every
// challenge fails.
type Static struct {
	Hardware bool
	Enrolled bool
	Outcomes []Outcome

	mu    sync.Mutex
	calls int
}

// HasHardware reports the configured hardware flag.
func (s *Static) HasHardware(ctx context.Context) (bool, error) {
	return s.Hardware, ctx.Err()
}

// IsEnrolled reports the configured enrollment flag.
func (s *Static) IsEnrolled(ctx context.Context) (bool, error) {
	return s.Enrolled, ctx.Err()
}

// Authenticate returns the next scripted outcome.
func (s *Static) Authenticate(ctx context.Context, _ Challenge) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Outcomes) == 0 {
		s.calls++
		return Outcome{}, nil
	}

	idx := s.calls
	if idx >= len(s.Outcomes) {
		idx = len(s.Outcomes) - 1
	}
	s.calls++
	return s.Outcomes[idx], nil
}

// Challenges reports how many times Authenticate has been invoked.
func (s *Static) Challenges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
