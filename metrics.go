package fleetgate

import "sync/atomic"

// MetricID identifies a single counter.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRestoreAuthenticated
	MetricRestoreUnauthenticated
	MetricLogout
	MetricSessionExpired
	MetricGateGranted
	MetricGateDenied
	MetricGateChallenges
	MetricGateRetries
	MetricRedirectToLogin
	MetricRedirectToLanding
	MetricBiometricEnableRejected
	MetricPersistenceFailure

	metricCount
)

var metricNames = [...]string{
	MetricLoginSuccess:            "login_success",
	MetricLoginFailure:            "login_failure",
	MetricRestoreAuthenticated:    "restore_authenticated",
	MetricRestoreUnauthenticated:  "restore_unauthenticated",
	MetricLogout:                  "logout",
	MetricSessionExpired:          "session_expired",
	MetricGateGranted:             "gate_granted",
	MetricGateDenied:              "gate_denied",
	MetricGateChallenges:          "gate_challenges",
	MetricGateRetries:             "gate_retries",
	MetricRedirectToLogin:         "redirect_to_login",
	MetricRedirectToLanding:       "redirect_to_landing",
	MetricBiometricEnableRejected: "biometric_enable_rejected",
	MetricPersistenceFailure:      "persistence_failure",
}

// String returns the stable snake_case name of the metric.
func (id MetricID) String() string {
	if id < 0 || id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// metrics is a fixed set of lock-free counters. A nil *metrics is valid and
// makes every operation a no-op, so callers never branch on enablement.
type metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics(enabled bool) *metrics {
	if !enabled {
		return nil
	}
	return &metrics{}
}

func (m *metrics) inc(id MetricID) {
	if m == nil || id < 0 || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *metrics) value(id MetricID) uint64 {
	if m == nil || id < 0 || id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *metrics) snapshot() map[string]uint64 {
	out := make(map[string]uint64, metricCount)
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricCount; id++ {
		out[id.String()] = m.counters[id].Load()
	}
	return out
}
