package fleetgate

import "context"

type screenContextKey struct{}

// WithScreen attaches the name of the screen that triggered the operation to
// ctx. The Manager copies it into audit events so operators can tell a login
// screen sign-in apart from a biometric settings toggle.
func WithScreen(ctx context.Context, screen string) context.Context {
	return context.WithValue(ctx, screenContextKey{}, screen)
}

func screenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	screen, _ := ctx.Value(screenContextKey{}).(string)
	return screen
}
