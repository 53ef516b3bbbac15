package fleetgate

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/openfleet/fleetgate/biometric"
	"github.com/openfleet/fleetgate/store"
)

func withAuthenticator(a biometric.Authenticator) managerOption {
	return func(b *Builder) { b.WithAuthenticator(a) }
}

func seedSession(t *testing.T, m *Manager, st store.Store) {
	t.Helper()
	tok := mintToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	if err := st.Set(context.Background(), store.KeyToken, tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	restore(t, m)
	if m.State() != StateAuthenticated {
		t.Fatal("seeded session did not restore authenticated")
	}
}

func TestGateStartsPending(t *testing.T) {
	m, _ := newTestManager(t, http.NotFoundHandler())
	if got := m.Gate().Decision(); got != DecisionPending {
		t.Fatalf("fresh gate decision = %v, want pending", got)
	}
}

func TestGateGrantsWhenPreferenceDisabled(t *testing.T) {
	auth := &biometric.Static{Hardware: true, Enrolled: true}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))
	seedSession(t, m, st)

	gate := m.Gate()
	if got := gate.Evaluate(context.Background()); got != DecisionGranted {
		t.Fatalf("decision = %v, want granted", got)
	}
	if auth.Challenges() != 0 {
		t.Fatalf("no challenge should run with the preference off, got %d", auth.Challenges())
	}
}

func TestGateChallengesWhenEnabled(t *testing.T) {
	auth := &biometric.Static{
		Hardware: true,
		Enrolled: true,
		Outcomes: []biometric.Outcome{{Success: true}},
	}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))
	seedSession(t, m, st)

	if err := m.EnableBiometrics(context.Background()); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}

	gate := m.Gate()
	if got := gate.Evaluate(context.Background()); got != DecisionGranted {
		t.Fatalf("decision = %v, want granted after passing challenge", got)
	}
	if auth.Challenges() != 1 {
		t.Fatalf("challenges = %d, want 1", auth.Challenges())
	}
}

func TestGateRetryRerunsChallengeOnly(t *testing.T) {
	auth := &biometric.Static{
		Hardware: true,
		Enrolled: true,
		Outcomes: []biometric.Outcome{{Success: false}, {Success: true}},
	}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))
	seedSession(t, m, st)

	if err := m.EnableBiometrics(context.Background()); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}

	gate := m.Gate()
	if got := gate.Evaluate(context.Background()); got != DecisionDenied {
		t.Fatalf("first decision = %v, want denied", got)
	}
	if got := gate.Retry(context.Background()); got != DecisionGranted {
		t.Fatalf("retry decision = %v, want granted", got)
	}
	if auth.Challenges() != 2 {
		t.Fatalf("challenges = %d, want 2", auth.Challenges())
	}
	// A fumbled fingerprint never costs the session.
	if m.State() != StateAuthenticated {
		t.Fatal("failed challenge must not sign the session out")
	}
}

func TestGateRetryOnlyFromDenied(t *testing.T) {
	auth := &biometric.Static{
		Hardware: true,
		Enrolled: true,
		Outcomes: []biometric.Outcome{{Success: true}},
	}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))
	seedSession(t, m, st)

	if err := m.EnableBiometrics(context.Background()); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}

	gate := m.Gate()

	// Before any Evaluate there is nothing to retry.
	if got := gate.Retry(context.Background()); got != DecisionPending {
		t.Fatalf("Retry before Evaluate = %v, want pending", got)
	}
	if auth.Challenges() != 0 {
		t.Fatalf("Retry before Evaluate ran %d challenge(s), want 0", auth.Challenges())
	}

	// After a granted decision a retry is equally a no-op.
	if got := gate.Evaluate(context.Background()); got != DecisionGranted {
		t.Fatalf("Evaluate = %v, want granted", got)
	}
	if got := gate.Retry(context.Background()); got != DecisionGranted {
		t.Fatalf("Retry after granted = %v, want granted", got)
	}
	if auth.Challenges() != 1 {
		t.Fatalf("challenges = %d, want only the one from Evaluate", auth.Challenges())
	}
}

func TestGateCancelledChallengeDenies(t *testing.T) {
	auth := &biometric.Static{
		Hardware: true,
		Enrolled: true,
		Outcomes: []biometric.Outcome{{Success: false, Cancelled: true}},
	}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))
	seedSession(t, m, st)

	if err := m.EnableBiometrics(context.Background()); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}

	if got := m.Gate().Evaluate(context.Background()); got != DecisionDenied {
		t.Fatalf("decision = %v, want denied on cancel", got)
	}
}

func TestGateExpiredSessionLogsOutOnceWithoutChallenge(t *testing.T) {
	auth := &biometric.Static{
		Hardware: true,
		Enrolled: true,
		Outcomes: []biometric.Outcome{{Success: true}},
	}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))

	expired := mintToken(t, map[string]any{"exp": time.Now().Add(-time.Minute).Unix()})
	if err := st.Set(context.Background(), store.KeyToken, expired); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	restore(t, m)

	// Restore already classified the token as dead; force it back into
	// memory to exercise the gate's own expiry path.
	m.mu.Lock()
	m.token = expired
	m.mu.Unlock()
	if err := st.Set(context.Background(), store.KeyBiometricEnabled, "1"); err != nil {
		t.Fatalf("seed preference: %v", err)
	}

	gate := m.Gate()
	if got := gate.Evaluate(context.Background()); got != DecisionDenied {
		t.Fatalf("decision = %v, want denied for an expired session", got)
	}
	if auth.Challenges() != 0 {
		t.Fatalf("expired session must never be challenged, got %d challenges", auth.Challenges())
	}
	if m.State() != StateUnauthenticated {
		t.Fatal("expired session should be signed out")
	}

	if got := gate.Evaluate(context.Background()); got != DecisionDenied {
		t.Fatalf("second decision = %v, want denied", got)
	}
	if got := m.MetricValue(MetricSessionExpired); got != 1 {
		t.Fatalf("session_expired counter = %d, want exactly 1 across evaluations", got)
	}

	// An expiry denial is not a fumbled challenge; there is nothing to
	// retry into.
	if got := gate.Retry(context.Background()); got != DecisionDenied {
		t.Fatalf("Retry after expiry denial = %v, want denied", got)
	}
	if auth.Challenges() != 0 {
		t.Fatalf("Retry after expiry denial ran %d challenge(s), want 0", auth.Challenges())
	}
}

func TestGateGrantsWhenChallengeUnavailable(t *testing.T) {
	// Preference on, hardware gone (say, after a repair swap): the gate
	// must not lock the driver out.
	auth := &biometric.Static{Hardware: false, Enrolled: false}
	m, st := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))
	seedSession(t, m, st)

	if err := st.Set(context.Background(), store.KeyBiometricEnabled, "1"); err != nil {
		t.Fatalf("seed preference: %v", err)
	}

	if got := m.Gate().Evaluate(context.Background()); got != DecisionGranted {
		t.Fatalf("decision = %v, want granted when the device cannot challenge", got)
	}
	if auth.Challenges() != 0 {
		t.Fatal("no challenge should run without hardware")
	}
}

func TestEnableBiometricsAvailabilityErrors(t *testing.T) {
	cases := []struct {
		name string
		auth *biometric.Static
		want error
	}{
		{"no hardware", &biometric.Static{Hardware: false}, ErrNoBiometricHardware},
		{"not enrolled", &biometric.Static{Hardware: true, Enrolled: false}, ErrBiometricNotEnrolled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := newTestManager(t, http.NotFoundHandler(), withAuthenticator(tc.auth))
			err := m.EnableBiometrics(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("EnableBiometrics = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, ErrBiometricUnavailable) {
				t.Fatal("availability errors must also match the umbrella sentinel")
			}
			if m.BiometricEnabled(context.Background()) {
				t.Fatal("rejected enable must not persist the preference")
			}
		})
	}
}

func TestEnableBiometricsWithoutAuthenticator(t *testing.T) {
	m, _ := newTestManager(t, http.NotFoundHandler())
	if err := m.EnableBiometrics(context.Background()); !errors.Is(err, ErrBiometricUnavailable) {
		t.Fatalf("EnableBiometrics = %v, want ErrBiometricUnavailable", err)
	}
}

func TestDisableBiometricsAlwaysAllowed(t *testing.T) {
	// Disable works even after enrollment is lost.
	auth := &biometric.Static{Hardware: true, Enrolled: true}
	m, _ := newTestManager(t, http.NotFoundHandler(), withAuthenticator(auth))

	if err := m.EnableBiometrics(context.Background()); err != nil {
		t.Fatalf("EnableBiometrics failed: %v", err)
	}
	if !m.BiometricEnabled(context.Background()) {
		t.Fatal("preference should read enabled")
	}

	auth.Enrolled = false
	if err := m.DisableBiometrics(context.Background()); err != nil {
		t.Fatalf("DisableBiometrics failed: %v", err)
	}
	if m.BiometricEnabled(context.Background()) {
		t.Fatal("preference should read disabled")
	}
}
