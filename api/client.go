package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// maxErrorBodySize bounds how much of an error response is read for the
// message extraction.
const maxErrorBodySize = 16 * 1024

// StatusError is returned for any non-2xx backend response. Message carries
// the backend's own "message" field when the body had one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Code)
}

// Config configures a backend client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://fleet.local:8080".
	BaseURL string
	// Timeout applies per request when HTTPClient is nil.
	Timeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// HTTPClient, when set, replaces the internally constructed client.
	HTTPClient *http.Client
	// TokenSource supplies the bearer token for authenticated endpoints.
	// A nil source or empty token sends no Authorization header.
	TokenSource func() string
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Client is a fleet-backend REST client. Safe for concurrent use.
type Client struct {
	base        *url.URL
	http        *http.Client
	userAgent   string
	tokenSource func() string
	logger      *zap.Logger

	mu       sync.RWMutex
	deviceID string
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: BaseURL required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: BaseURL scheme must be http or https, got %q", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "fleetgate"
	}

	return &Client{
		base:        base,
		http:        httpClient,
		userAgent:   userAgent,
		tokenSource: cfg.TokenSource,
		logger:      logger,
	}, nil
}

// SetDeviceID sets the X-Device-Id header value sent with every request.
func (c *Client) SetDeviceID(id string) {
	c.mu.Lock()
	c.deviceID = id
	c.mu.Unlock()
}

// DeviceID returns the currently configured device ID.
func (c *Client) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceID
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("api: invalid path %q: %w", path, err)
	}
	target := c.base.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := c.DeviceID(); id != "" {
		req.Header.Set("X-Device-Id", id)
	}
	if c.tokenSource != nil {
		if tok := c.tokenSource(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Body)}
		c.logger.Debug("backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls the backend's "message" field out of an error body,
// falling back to the raw body when it is short and not JSON.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
		return ""
	}

	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		return ""
	}
	return text
}
