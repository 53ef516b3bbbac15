package fleetgate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent records one security-relevant session transition.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Username  string            `json:"username,omitempty"`
	DeviceID  string            `json:"device_id,omitempty"`
	Screen    string            `json:"screen,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Event types emitted by the Manager, Gate, and Guard.
const (
	EventLoginSuccess            = "login_success"
	EventLoginFailure            = "login_failure"
	EventRestoreAuthenticated    = "restore_authenticated"
	EventRestoreUnauthenticated  = "restore_unauthenticated"
	EventLogout                  = "logout"
	EventSessionExpired          = "session_expired"
	EventGateGranted             = "gate_granted"
	EventGateDenied              = "gate_denied"
	EventGateRetry               = "gate_retry"
	EventBiometricEnabled        = "biometric_enabled"
	EventBiometricDisabled       = "biometric_disabled"
	EventBiometricEnableRejected = "biometric_enable_rejected"
	EventRedirectToLogin         = "redirect_to_login"
	EventRedirectToLanding       = "redirect_to_landing"
)

// AuditSink receives audit events. Emit must not block indefinitely.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel for consumption by the
// embedding application.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to the wrapped writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
