package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/luvhive/hivelink/internal/observability"
	"github.com/luvhive/hivelink/internal/session"
)

const apiPrefix = "/api"

// StatusError is returned for any non-2xx response so callers can branch on
// the code. It carries a truncated body for logging.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, e.Body)
}

// Config controls client construction.
type Config struct {
	BaseURL string
	Session *session.Session
	Timeout time.Duration
	Logger  zerolog.Logger
	Metrics *observability.Metrics

	// OnUnauthorized runs after the session has been cleared for an
	// unauthorized response. A UI embedding redirects to its login entry
	// point here; the daemon drops to signed-out state.
	OnUnauthorized func()
}

// Client is the single authenticated entry point to the LuvHive backend.
//
// Every outgoing request carries the current bearer token when one exists;
// a missing token means the request goes out unauthenticated and the server
// decides. Any unauthorized response clears all locally stored session
// state before the caller sees the error: a 401 means the session is dead,
// never something to retry or refresh.
type Client struct {
	baseURL        string
	session        *session.Session
	http           *http.Client
	logger         zerolog.Logger
	metrics        *observability.Metrics
	onUnauthorized func()
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		session:        cfg.Session,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		onUnauthorized: cfg.OnUnauthorized,
	}
	c.http = &http.Client{
		Timeout:   timeout,
		Transport: &authTransport{base: http.DefaultTransport, client: c},
	}
	return c
}

// Session exposes the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.session }

// authTransport injects the bearer token on the way out and enforces the
// fail-closed unauthorized policy on the way back.
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := t.client.session.Token(req.Context()); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized {
		t.client.evict(req.Context())
	}
	return res, nil
}

// evict clears every locally stored credential for the active scope. Runs
// once per unauthorized response.
func (c *Client) evict(ctx context.Context) {
	if err := c.session.ClearAll(ctx); err != nil {
		c.logger.Error().Err(err).Msg("clear session after unauthorized response")
	}
	if c.metrics != nil {
		c.metrics.UnauthorizedEvictions.Inc()
	}
	c.logger.Warn().Str("scope", c.session.Scope()).Msg("session evicted, sign-in required")
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// do issues one JSON request under the /api prefix and decodes the response
// into out when non-nil. Network errors propagate untouched; non-2xx
// statuses become a *StatusError for page-level handling.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if c.metrics != nil {
		c.metrics.APIRequests.WithLabelValues(method, statusClass(res.StatusCode)).Inc()
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
