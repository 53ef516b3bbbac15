package fleetgate

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openfleet/fleetgate/api"
	"github.com/openfleet/fleetgate/biometric"
	"github.com/openfleet/fleetgate/store"
)

// Builder assembles a Manager. Builders are single use; Build returns an
// error on a second call.
type Builder struct {
	config Config

	store         store.Store
	authenticator biometric.Authenticator
	httpClient    *http.Client
	logger        *zap.Logger
	auditSink     AuditSink
	now           func() time.Time

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend root without replacing the rest of the
// default configuration.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStore sets the durable session store. Required.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithAuthenticator sets the platform biometric authenticator. Optional; an
// absent authenticator makes EnableBiometrics fail and the Gate grant by
// preference only.
func (b *Builder) WithAuthenticator(a biometric.Authenticator) *Builder {
	b.authenticator = a
	return b
}

// WithHTTPClient overrides the transport used for backend calls.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithLogger sets the structured logger. Defaults to zap.NewNop.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit sink and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithClock overrides the time source used for token validity. Test hook.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and assembles the Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.store == nil {
		return nil, errors.New("session store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		config:        cfg,
		store:         b.store,
		authenticator: b.authenticator,
		logger:        logger,
		now:           now,
		loading:       true,
		subscribers:   make(map[uint64]chan SessionState),
	}
	m.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	m.metrics = newMetrics(cfg.Metrics.Enabled)

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		UserAgent:   cfg.API.UserAgent,
		HTTPClient:  b.httpClient,
		TokenSource: m.CurrentToken,
		Logger:      logger,
	})
	if err != nil {
		m.audit.close()
		return nil, err
	}
	m.api = client

	b.built = true

	return m, nil
}
