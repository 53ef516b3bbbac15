package fleetgate

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestGuardNoRedirectWhileLoading(t *testing.T) {
	m, _ := newTestManager(t, http.NotFoundHandler())
	guard := m.Guard()

	// Before Restore the manager is loading; nothing signed out yet.
	if route, ok := guard.Evaluate("/(tabs)/dashboard"); ok {
		t.Fatalf("loading guard redirected to %q", route)
	}
	if route, ok := guard.Evaluate("/(auth)/login"); ok {
		t.Fatalf("loading guard redirected to %q", route)
	}
}

func TestGuardRedirectsSignedOutToLogin(t *testing.T) {
	m, _ := newTestManager(t, http.NotFoundHandler())
	restore(t, m)

	guard := m.Guard()
	route, ok := guard.Evaluate("/(tabs)/dashboard")
	if !ok || route != "/(auth)/login" {
		t.Fatalf("Evaluate = %q, %v; want login redirect", route, ok)
	}

	// Already on the login screen: nothing to do.
	if route, ok := guard.Evaluate("/(auth)/login"); ok {
		t.Fatalf("unexpected redirect to %q from inside the auth region", route)
	}
}

func TestGuardRedirectsSignedInToLanding(t *testing.T) {
	tok := mintToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	m, _ := newTestManager(t, signInHandler(t, tok))
	restore(t, m)
	if err := m.Login(context.Background(), "anna", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	guard := m.Guard()
	route, ok := guard.Evaluate("/(auth)/login")
	if !ok || route != "/(tabs)/dashboard" {
		t.Fatalf("Evaluate = %q, %v; want landing redirect", route, ok)
	}
	if route, ok := guard.Evaluate("/(tabs)/positions"); ok {
		t.Fatalf("unexpected redirect to %q for a consistent route", route)
	}
}

func TestGuardTreatsExpiredTokenAsSignedOut(t *testing.T) {
	m, _ := newTestManager(t, http.NotFoundHandler())
	restore(t, m)

	expired := mintToken(t, map[string]any{"exp": time.Now().Add(-time.Minute).Unix()})
	m.mu.Lock()
	m.token = expired
	m.mu.Unlock()

	route, ok := m.Guard().Evaluate("/(tabs)/dashboard")
	if !ok || route != "/(auth)/login" {
		t.Fatalf("Evaluate = %q, %v; want login redirect for expired token", route, ok)
	}
}

func TestGuardRunFollowsTransitions(t *testing.T) {
	tok := mintToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	m, _ := newTestManager(t, signInHandler(t, tok))
	restore(t, m)

	var mu sync.Mutex
	current := "/(auth)/login"
	navigated := make(chan string, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Guard().Run(ctx,
			func() string {
				mu.Lock()
				defer mu.Unlock()
				return current
			},
			func(route string) {
				mu.Lock()
				current = route
				mu.Unlock()
				navigated <- route
			},
		)
	}()

	if err := m.Login(context.Background(), "anna", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	select {
	case route := <-navigated:
		if route != "/(tabs)/dashboard" {
			t.Fatalf("navigated to %q, want the landing route", route)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("guard never navigated after login")
	}

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	select {
	case route := <-navigated:
		if route != "/(auth)/login" {
			t.Fatalf("navigated to %q, want the login route", route)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("guard never navigated after logout")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("guard run loop did not stop on cancel")
	}
}

func TestFirstSegment(t *testing.T) {
	cases := []struct {
		route string
		want  string
	}{
		{"/(auth)/login", "(auth)"},
		{"(auth)/login", "(auth)"},
		{"/(tabs)/dashboard", "(tabs)"},
		{"(tabs)", "(tabs)"},
		{"/", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := firstSegment(tc.route); got != tc.want {
			t.Fatalf("firstSegment(%q) = %q, want %q", tc.route, got, tc.want)
		}
	}
}
