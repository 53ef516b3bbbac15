package fleetgate

import (
	"context"
	"strings"
)

// Guard keeps navigation consistent with session state. Routes are
// slash-separated segment paths; the first segment decides the region. A
// signed-out user belongs inside the auth region, a signed-in user outside
// of it, and the Guard produces the redirect whenever the two disagree.
type Guard struct {
	manager *Manager
	config  GuardConfig
}

// Evaluate returns the route to redirect to, or ok=false when the current
// route is already consistent with the session.
//
// While the Manager is still loading, Evaluate always declines. Redirecting
// on a half-restored session would bounce a returning user through the
// login screen before their persisted token has been read.
func (g *Guard) Evaluate(currentRoute string) (redirect string, ok bool) {
	m := g.manager

	if m.Loading() {
		return "", false
	}

	inAuthRegion := firstSegment(currentRoute) == g.config.AuthRegion
	authenticated := m.State() == StateAuthenticated

	switch {
	case !authenticated && !inAuthRegion:
		m.metrics.inc(MetricRedirectToLogin)
		m.emitAudit(context.Background(), EventRedirectToLogin, true, nil, map[string]string{"from": currentRoute})
		return g.config.LoginRoute, true
	case authenticated && inAuthRegion:
		m.metrics.inc(MetricRedirectToLanding)
		m.emitAudit(context.Background(), EventRedirectToLanding, true, nil, map[string]string{"from": currentRoute})
		return g.config.LandingRoute, true
	default:
		return "", false
	}
}

// Run subscribes to session transitions and drives navigate with the
// redirects Evaluate produces, re-checking the current route after every
// transition. It blocks until ctx is done or the Manager closes.
func (g *Guard) Run(ctx context.Context, current func() string, navigate func(string)) {
	states, cancel := g.manager.Subscribe()
	defer cancel()

	// Initial reconciliation; transitions that happened before Run started
	// still deserve a redirect.
	if route, ok := g.Evaluate(current()); ok {
		navigate(route)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-states:
			if !open {
				return
			}
			if route, ok := g.Evaluate(current()); ok {
				navigate(route)
			}
		}
	}
}

// firstSegment extracts the leading path segment, tolerating leading
// slashes and bare segment names.
func firstSegment(route string) string {
	route = strings.TrimLeft(route, "/")
	if i := strings.IndexByte(route, '/'); i >= 0 {
		return route[:i]
	}
	return route
}
