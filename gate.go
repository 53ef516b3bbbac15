package fleetgate

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openfleet/fleetgate/biometric"
)

// Gate sits between an authenticated session and the protected content and
// decides, per evaluation, whether the holder of the device is the holder
// of the session. It starts pending, resolves to granted or denied, and a
// denied challenge can be retried without re-checking the session.
//
// The Gate never returns errors: every failure mode collapses into a
// decision the caller can render.
type Gate struct {
	manager *Manager

	mu       sync.Mutex
	decision GateDecision
	// sessionDenied marks a denial that came from session expiry rather
	// than a failed challenge; such a denial is not retryable.
	sessionDenied bool

	expiredOnce atomic.Bool
}

// Decision returns the last resolved decision, DecisionPending before the
// first Evaluate completes.
func (g *Gate) Decision() GateDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Gate) setDecision(d GateDecision) GateDecision {
	g.mu.Lock()
	g.decision = d
	g.sessionDenied = false
	g.mu.Unlock()
	return d
}

func (g *Gate) setSessionDenied() GateDecision {
	g.mu.Lock()
	g.decision = DecisionDenied
	g.sessionDenied = true
	g.mu.Unlock()
	return DecisionDenied
}

func (g *Gate) retryable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision == DecisionDenied && !g.sessionDenied
}

// Evaluate runs the full gate sequence: session validity first, then the
// stored opt-in, then the platform challenge.
//
// An expired session short-circuits everything: the Gate signs the session
// out, exactly once across the Gate's lifetime, and denies without ever
// prompting. Prompting for a biometric against a dead session would tell
// the user they unlocked something that no longer exists.
func (g *Gate) Evaluate(ctx context.Context) GateDecision {
	m := g.manager

	if !m.IsTokenValid() {
		if g.expiredOnce.CompareAndSwap(false, true) {
			if err := m.Logout(ctx); err != nil {
				m.logger.Warn("expired session cleanup failed", zap.Error(err))
			}
			m.emitAudit(ctx, EventSessionExpired, true, nil, nil)
			m.metrics.inc(MetricSessionExpired)
		}
		m.metrics.inc(MetricGateDenied)
		m.emitAudit(ctx, EventGateDenied, false, nil, map[string]string{"reason": "session_expired"})
		return g.setSessionDenied()
	}

	if !m.BiometricEnabled(ctx) {
		m.metrics.inc(MetricGateGranted)
		m.emitAudit(ctx, EventGateGranted, true, nil, map[string]string{"reason": "preference_disabled"})
		return g.setDecision(DecisionGranted)
	}

	// Opt-in is on but the device cannot challenge anymore: the preference
	// is moot, not a lockout.
	if m.authenticator == nil || biometric.CheckAvailability(ctx, m.authenticator) != nil {
		m.metrics.inc(MetricGateGranted)
		m.emitAudit(ctx, EventGateGranted, true, nil, map[string]string{"reason": "challenge_unavailable"})
		return g.setDecision(DecisionGranted)
	}

	return g.runChallenge(ctx)
}

// Retry re-runs only the platform challenge, and only from a denial the
// challenge itself produced. Session validity and the stored preference
// were settled by Evaluate and are not revisited, so a user fumbling a
// fingerprint is never silently signed out. From any other state,
// including a denial caused by session expiry, Retry changes nothing and
// returns the current decision.
func (g *Gate) Retry(ctx context.Context) GateDecision {
	if !g.retryable() {
		return g.Decision()
	}

	m := g.manager
	m.metrics.inc(MetricGateRetries)
	m.emitAudit(ctx, EventGateRetry, true, nil, nil)
	return g.runChallenge(ctx)
}

func (g *Gate) runChallenge(ctx context.Context) GateDecision {
	m := g.manager

	m.metrics.inc(MetricGateChallenges)

	outcome, err := m.authenticator.Authenticate(ctx, biometric.Challenge{
		PromptMessage:       m.config.Biometric.PromptMessage,
		FallbackLabel:       m.config.Biometric.FallbackLabel,
		AllowDeviceFallback: m.config.Biometric.AllowDeviceFallback,
	})
	if err != nil {
		m.logger.Warn("biometric challenge errored", zap.Error(err))
		m.metrics.inc(MetricGateDenied)
		m.emitAudit(ctx, EventGateDenied, false, err, nil)
		return g.setDecision(DecisionDenied)
	}
	if !outcome.Success {
		reason := "challenge_failed"
		if outcome.Cancelled {
			reason = "challenge_cancelled"
		}
		m.metrics.inc(MetricGateDenied)
		m.emitAudit(ctx, EventGateDenied, false, nil, map[string]string{"reason": reason})
		return g.setDecision(DecisionDenied)
	}

	m.metrics.inc(MetricGateGranted)
	m.emitAudit(ctx, EventGateGranted, true, nil, nil)
	return g.setDecision(DecisionGranted)
}
