// Package api is the credentialed transport to the remote Weather Flick
// API. Every authenticated call reads the persisted bearer token fresh,
// and a 401 response is handled here exactly once: evict the credential,
// ask the navigator for a move to the login entry point, and hand the
// caller ErrAuthRequired. Screens never grow their own 401 branch.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aicc6/weather-flick-admin-gateway/internal/nav"
)

// ErrAuthRequired signals that the session credential was rejected and
// the operator must authenticate again. The navigation middleware turns
// it into the login redirect; callers only need to stop rendering.
var ErrAuthRequired = errors.New("api: authentication required")

// StatusError carries a non-2xx response that is not an authentication
// failure. The transport does not interpret business statuses.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

// CredentialSource is the slice of the credential store the transport
// needs: a fresh token per call and the atomic eviction.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) (removed bool, err error)
}

// EvictionRecorder counts credential evictions for observability.
type EvictionRecorder interface {
	RecordEviction()
}

// Client calls the remote REST API on behalf of the console.
type Client struct {
	baseURL    string
	loginPath  string
	httpClient *http.Client
	creds      CredentialSource
	logger     *slog.Logger
	metrics    EvictionRecorder
}

// NewClient constructs a Client. loginPath is the console's
// re-authentication entry point used for the 401 redirect.
func NewClient(baseURL, loginPath string, creds CredentialSource, logger *slog.Logger, metrics EvictionRecorder) *Client {
	return &Client{
		baseURL:   baseURL,
		loginPath: loginPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds:   creds,
		logger:  logger,
		metrics: metrics,
	}
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out, true)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPost, path, in, out, true)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPut, path, in, out, true)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, true)
}

// PostAnonymous issues a POST without attaching the credential. The login
// endpoint uses it; a 401 here means bad credentials, not an expired
// session, so it surfaces as a StatusError instead of an eviction.
func (c *Client) PostAnonymous(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPost, path, in, out, false)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any, authenticated bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		// Read the token per call, never cached: a login or logout can
		// change the credential between two calls on the same client.
		token, err := c.creds.Token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if authenticated && resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
		return ErrAuthRequired
	}

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return &StatusError{Status: resp.StatusCode, Body: data}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}

// handleUnauthorized runs the centralized 401 side effects. The redis DEL
// behind Clear elects a single winner, so concurrent 401s collapse into
// one eviction and one navigation.
func (c *Client) handleUnauthorized(ctx context.Context) {
	removed, err := c.creds.Clear(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("evict credential", slog.Any("error", err))
		}
		return
	}
	if !removed {
		return
	}
	if c.metrics != nil {
		c.metrics.RecordEviction()
	}
	if c.logger != nil {
		c.logger.Warn("session credential rejected, evicted")
	}
	navigator := nav.FromContext(ctx)
	if navigator.Location() != c.loginPath {
		navigator.Navigate(c.loginPath)
	}
}
