package fleetgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openfleet/fleetgate/api"
	"github.com/openfleet/fleetgate/biometric"
	"github.com/openfleet/fleetgate/internal/device"
	"github.com/openfleet/fleetgate/store"
	"github.com/openfleet/fleetgate/token"
)

// Manager owns the device session: the persisted token and profile, the
// in-memory session state, and the transitions between them. Construct it
// through the Builder; the zero value is not usable.
//
// All methods are safe for concurrent use. Restore, Login, and Logout are
// mutually exclusive: while one is running, the others fail fast with
// ErrOperationInFlight instead of queueing.
type Manager struct {
	config        Config
	store         store.Store
	authenticator biometric.Authenticator
	api           *api.Client
	logger        *zap.Logger
	audit         *auditDispatcher
	metrics       *metrics
	now           func() time.Time

	opInFlight atomic.Bool
	restored   atomic.Bool

	mu       sync.Mutex
	loading  bool
	token    string
	user     *UserProfile
	deviceID string

	subMu       sync.Mutex
	subscribers map[uint64]chan SessionState
	nextSubID   uint64
	closed      bool
}

// beginOp claims the single operation slot.
func (m *Manager) beginOp() error {
	if !m.opInFlight.CompareAndSwap(false, true) {
		return ErrOperationInFlight
	}
	return nil
}

func (m *Manager) endOp() {
	m.opInFlight.Store(false)
}

// Restore loads any persisted session from the store and resolves the
// initial session state. It must be called exactly once, before the first
// Login; further calls return ErrAlreadyRestored.
//
// Restore never fails because of store trouble: an unreadable token is
// treated as an absent one and the device simply starts signed out. The
// loading flag is cleared on every path, including panics in the store.
func (m *Manager) Restore(ctx context.Context) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	defer m.endOp()

	if !m.restored.CompareAndSwap(false, true) {
		return ErrAlreadyRestored
	}

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.notify()
	}()

	deviceID, err := device.EnsureID(ctx, m.store)
	if err != nil {
		m.logger.Warn("device id unavailable", zap.Error(err))
	} else {
		m.api.SetDeviceID(deviceID)
		m.mu.Lock()
		m.deviceID = deviceID
		m.mu.Unlock()
	}

	raw, err := m.store.Get(ctx, store.KeyToken)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn("stored token unreadable, starting signed out", zap.Error(err))
			m.metrics.inc(MetricPersistenceFailure)
		}
		m.metrics.inc(MetricRestoreUnauthenticated)
		m.emitAudit(ctx, EventRestoreUnauthenticated, true, nil, nil)
		return nil
	}

	if !m.IsTokenValid(raw) {
		m.metrics.inc(MetricRestoreUnauthenticated)
		m.emitAudit(ctx, EventRestoreUnauthenticated, true, nil, map[string]string{"reason": "token_expired"})
		return nil
	}

	// A token without a readable profile is still a session. The profile is
	// display data; it can be refetched, the token cannot.
	var user *UserProfile
	if rawUser, err := m.store.Get(ctx, store.KeyUser); err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn("stored profile unreadable, continuing without it", zap.Error(err))
			m.metrics.inc(MetricPersistenceFailure)
		}
	} else if u, err := decodeProfile(rawUser); err != nil {
		m.logger.Warn("stored profile corrupt, continuing without it", zap.Error(err))
	} else {
		user = u
	}

	m.mu.Lock()
	m.token = raw
	m.user = user
	m.mu.Unlock()

	m.metrics.inc(MetricRestoreAuthenticated)
	m.emitAudit(ctx, EventRestoreAuthenticated, true, nil, nil)
	return nil
}

// Login authenticates against the backend and persists the resulting
// session. On success the Manager is authenticated; on any failure it is
// left signed out with nothing half-persisted.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if !m.restored.Load() {
		return ErrNotReady
	}
	if err := m.beginOp(); err != nil {
		return err
	}
	defer m.endOp()

	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	m.notify()

	resp, err := m.api.SignIn(ctx, username, password)
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.notify()

		m.metrics.inc(MetricLoginFailure)
		m.emitAudit(ctx, EventLoginFailure, false, err, map[string]string{"username": username})

		var se *api.StatusError
		if errors.As(err, &se) {
			msg := se.Message
			if msg == "" {
				msg = http.StatusText(se.Code)
			}
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, msg)
		}
		return err
	}

	user := &UserProfile{
		ID:       resp.ID,
		Username: resp.Username,
		Email:    resp.Email,
		Roles:    resp.Roles,
	}

	// Memory first, then disk: the API client's token source must see the
	// new token before anything else runs, and a failed persist below
	// rolls the memory state back wholesale.
	m.mu.Lock()
	m.token = resp.AccessToken
	m.user = user
	m.mu.Unlock()

	if err := m.persistSession(ctx, resp.AccessToken, user); err != nil {
		m.mu.Lock()
		m.token = ""
		m.user = nil
		m.loading = false
		m.mu.Unlock()
		m.notify()

		m.metrics.inc(MetricPersistenceFailure)
		m.metrics.inc(MetricLoginFailure)
		m.emitAudit(ctx, EventLoginFailure, false, err, map[string]string{"username": username})
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	m.notify()

	m.metrics.inc(MetricLoginSuccess)
	m.emitAudit(ctx, EventLoginSuccess, true, nil, nil)
	return nil
}

func (m *Manager) persistSession(ctx context.Context, tok string, user *UserProfile) error {
	if err := m.store.Set(ctx, store.KeyToken, tok); err != nil {
		return err
	}
	raw, err := encodeProfile(user)
	if err != nil {
		_ = m.store.Delete(ctx, store.KeyToken)
		return err
	}
	if err := m.store.Set(ctx, store.KeyUser, raw); err != nil {
		_ = m.store.Delete(ctx, store.KeyToken)
		return err
	}
	return nil
}

// Logout clears the session. Memory is cleared unconditionally; store
// deletions are attempted for both keys and their errors joined into the
// return value. Logging out while signed out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	defer m.endOp()

	return m.logout(ctx, EventLogout)
}

// logout is the shared tail of Logout and the Gate's expiry path. The
// caller holds the operation slot.
func (m *Manager) logout(ctx context.Context, event string) error {
	m.mu.Lock()
	hadSession := m.token != ""
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	err := errors.Join(
		ignoreNotFound(m.store.Delete(ctx, store.KeyToken)),
		ignoreNotFound(m.store.Delete(ctx, store.KeyUser)),
	)
	if err != nil {
		m.logger.Warn("session cleanup incomplete", zap.Error(err))
		m.metrics.inc(MetricPersistenceFailure)
	}

	if hadSession {
		m.notify()
		m.metrics.inc(MetricLogout)
		if event == EventSessionExpired {
			m.metrics.inc(MetricSessionExpired)
		}
		m.emitAudit(ctx, event, err == nil, err, nil)
	}

	return err
}

func ignoreNotFound(err error) error {
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil
	}
	return err
}

// IsTokenValid reports whether a token is usable. With no argument it
// checks the current session token.
//
// Validity consumes the fail-open codec: a malformed token decodes to
// empty claims, empty claims carry no expiry, and a token without an
// expiry is valid. The backend is the verifier; the client only refuses
// what it can positively see is stale. An empty token is invalid, an
// expiry that is present but unreadable is invalid, an expiry not strictly
// in the future is invalid, and any panic while inspecting the token
// counts as invalid.
func (m *Manager) IsTokenValid(tok ...string) (valid bool) {
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()

	raw := ""
	if len(tok) > 0 {
		raw = tok[0]
	} else {
		raw = m.CurrentToken()
	}
	if raw == "" {
		return false
	}

	claims := token.Decode(raw)
	if !claims.HasExpiry() {
		return true
	}
	exp, ok := claims.ExpiresAt()
	if !ok {
		// An expiry we cannot read is an expiry we cannot trust.
		return false
	}
	return exp.After(m.now())
}

// State derives the current session state. It is never stored: loading
// wins, then the token decides. A token that expired since the last
// operation reads as unauthenticated here without any event firing; the
// Gate and Guard are the ones that act on the transition.
func (m *Manager) State() SessionState {
	m.mu.Lock()
	loading, tok := m.loading, m.token
	m.mu.Unlock()

	if loading {
		return StateLoading
	}
	if tok != "" && m.IsTokenValid(tok) {
		return StateAuthenticated
	}
	return StateUnauthenticated
}

// Loading reports whether a restore or login is still resolving. Consumers
// that react to state, the Guard included, must hold off while this is true.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// CurrentToken returns the in-memory session token, or "" when signed out.
func (m *Manager) CurrentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// CurrentUser returns a copy of the signed-in profile, or nil. A nil
// profile does not imply a missing session; see Restore.
func (m *Manager) CurrentUser() *UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	u.Roles = append([]string(nil), m.user.Roles...)
	return &u
}

// DeviceID returns the stable installation identifier, or "" before Restore.
func (m *Manager) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceID
}

// API exposes the backend client bound to this session.
func (m *Manager) API() *api.Client {
	return m.api
}

// Subscribe returns a channel that receives the session state after every
// transition, plus a cancel function. Sends never block: a subscriber that
// is not draining misses intermediate states, never stalls the Manager.
func (m *Manager) Subscribe() (<-chan SessionState, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan SessionState, 8)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	m.subscribers[id] = ch

	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
		}
	}
}

func (m *Manager) notify() {
	state := m.State()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}

// EnableBiometrics records the opt-in after proving the device can honor
// it. The preference is written only when hardware is present and a
// credential is enrolled; otherwise the sentinel explains which is missing.
func (m *Manager) EnableBiometrics(ctx context.Context) error {
	if m.authenticator == nil {
		m.metrics.inc(MetricBiometricEnableRejected)
		return ErrBiometricUnavailable
	}

	if err := biometric.CheckAvailability(ctx, m.authenticator); err != nil {
		m.metrics.inc(MetricBiometricEnableRejected)
		m.emitAudit(ctx, EventBiometricEnableRejected, false, err, nil)
		switch {
		case errors.Is(err, biometric.ErrNoHardware):
			return ErrNoBiometricHardware
		case errors.Is(err, biometric.ErrNotEnrolled):
			return ErrBiometricNotEnrolled
		default:
			return fmt.Errorf("%w: %v", ErrBiometricUnavailable, err)
		}
	}

	if err := m.store.Set(ctx, store.KeyBiometricEnabled, "1"); err != nil {
		m.metrics.inc(MetricPersistenceFailure)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	m.emitAudit(ctx, EventBiometricEnabled, true, nil, nil)
	return nil
}

// DisableBiometrics clears the opt-in. No availability check: a user must
// always be able to turn the lock off, including after losing enrollment.
func (m *Manager) DisableBiometrics(ctx context.Context) error {
	if err := m.store.Set(ctx, store.KeyBiometricEnabled, "0"); err != nil {
		m.metrics.inc(MetricPersistenceFailure)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	m.emitAudit(ctx, EventBiometricDisabled, true, nil, nil)
	return nil
}

// BiometricEnabled reads the stored opt-in. Anything other than a readable
// "1" counts as disabled, so a corrupt preference can never lock a user
// behind a challenge they did not ask for.
func (m *Manager) BiometricEnabled(ctx context.Context) bool {
	v, err := m.store.Get(ctx, store.KeyBiometricEnabled)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn("biometric preference unreadable, treating as disabled", zap.Error(err))
		}
		return false
	}
	return v == "1"
}

// Gate returns a biometric gate bound to this Manager.
func (m *Manager) Gate() *Gate {
	return &Gate{manager: m}
}

// Guard returns a route guard bound to this Manager.
func (m *Manager) Guard() *Guard {
	return &Guard{manager: m, config: m.config.Guard}
}

// MetricsSnapshot returns the current counter values, empty when metrics
// are disabled.
func (m *Manager) MetricsSnapshot() map[string]uint64 {
	return m.metrics.snapshot()
}

// MetricValue returns one counter.
func (m *Manager) MetricValue(id MetricID) uint64 {
	return m.metrics.value(id)
}

// AuditDropped returns how many audit events were discarded because the
// dispatch buffer was full.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.droppedCount()
}

// Close stops the audit dispatcher and closes all subscriber channels. The
// Manager must not be used afterwards.
func (m *Manager) Close() error {
	m.subMu.Lock()
	if !m.closed {
		m.closed = true
		for id, ch := range m.subscribers {
			close(ch)
			delete(m.subscribers, id)
		}
	}
	m.subMu.Unlock()

	m.audit.close()
	return nil
}

func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, opErr error, metadata map[string]string) {
	if m.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: m.now(),
		EventType: eventType,
		DeviceID:  m.DeviceID(),
		Screen:    screenFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if u := m.CurrentUser(); u != nil {
		event.Username = u.Username
	} else if metadata != nil {
		event.Username = metadata["username"]
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	m.audit.emit(ctx, event)
}
