// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api wraps the Cloud Inventory backend REST surface. It injects the
// bearer token, performs the one-shot refresh-and-replay on 401, and exposes
// typed operations for auth, chat, and region management.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnableToConnect normalizes all network-level failures.
	ErrUnableToConnect = errors.New("unable to connect to server")

	// ErrSessionExpired indicates authentication could not be recovered;
	// the session has been cleared and the user must log in again.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrAuthFailed indicates rejected credentials on login.
	ErrAuthFailed = errors.New("invalid username or password")

	// ErrRateLimited indicates the client-side send limiter rejected the
	// request.
	ErrRateLimited = errors.New("sending too fast, slow down")
)

// APIError is a non-401 backend error with its optional detail string.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// maxResponseSize caps response bodies to prevent memory exhaustion from a
// misbehaving server.
const maxResponseSize = 10 * 1024 * 1024

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend on behalf of one session store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
	userAgent  string

	// refreshBuffer: refresh proactively when the token expires within
	// this window.
	refreshBuffer time.Duration

	// refreshGroup collapses concurrent refresh attempts onto a single
	// network call; every waiter receives the same token.
	refreshGroup singleflight.Group

	// sendLimiter caps outgoing chat requests.
	sendLimiter *rate.Limiter
}

// NewClient creates a client for the given base URL and session store.
func NewClient(baseURL string, store *session.Store) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		store:         store,
		userAgent:     "cloudinv-tui/1.0",
		refreshBuffer: 5 * time.Minute,
		sendLimiter:   rate.NewLimiter(rate.Limit(0.5), 5),
	}
}

// WithTimeout sets the per-request HTTP timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithRefreshBuffer sets the proactive refresh window.
func (c *Client) WithRefreshBuffer(d time.Duration) *Client {
	c.refreshBuffer = d
	return c
}

// WithSendRate caps chat sends to n per minute with a small burst.
func (c *Client) WithSendRate(perMinute int) *Client {
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	c.sendLimiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
	return c
}

// WithHTTPClient swaps the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Store exposes the session store this client authenticates with.
func (c *Client) Store() *session.Store {
	return c.store
}

// =============================================================================
// REQUEST CORE
// =============================================================================

// doRequest performs one backend call. withAuth attaches the bearer token.
// On 401 with retry=true it refreshes once and replays with retry=false; a
// second 401, or a refresh failure, clears the session and surfaces
// ErrSessionExpired.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any, withAuth, retry bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+c.store.Token())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnableToConnect, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToConnect, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && withAuth {
		if retry {
			logging.Debugf("401 on %s %s, attempting token refresh", method, path)
			if _, err := c.RefreshToken(ctx); err != nil {
				c.store.Clear()
				return ErrSessionExpired
			}
			return c.doRequest(ctx, method, path, body, out, withAuth, false)
		}
		c.store.Clear()
		return ErrSessionExpired
	}

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorFromResponse maps a non-2xx body to an APIError. An unparsable body
// is tolerated; the status code alone is still an error.
func (c *Client) errorFromResponse(status int, data []byte) error {
	var eb errorBody
	if len(data) > 0 {
		_ = json.Unmarshal(data, &eb)
	}
	return &APIError{Status: status, Detail: eb.Detail}
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// Login authenticates with credentials and stores the resulting token plus
// the minimal profile from the login response. Permissions arrive later via
// GetCurrentUser.
func (c *Client) Login(ctx context.Context, username, password string) (*session.User, error) {
	c.store.SetPhase(session.PhaseAuthenticating)

	var resp LoginResponse
	err := c.doRequest(ctx, http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: password}, &resp, false, false)
	if err != nil {
		c.store.SetPhase(session.PhaseUnauthenticated)
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			if apiErr.Detail != "" {
				return nil, fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Detail)
			}
			return nil, ErrAuthFailed
		}
		return nil, err
	}

	user := &session.User{
		Username:    resp.UserInfo.Username,
		Role:        resp.UserInfo.Role,
		Permissions: []string{},
	}
	if err := c.store.SetAuth(resp.AccessToken, user); err != nil {
		return nil, err
	}

	logging.Infof("logged in as %s (%s)", user.Username, user.Role)
	return user, nil
}

// RefreshToken exchanges the current token for a fresh one. Concurrent calls
// collapse onto a single in-flight request; all callers receive the same
// token. On failure the session is cleared.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		c.store.SetPhase(session.PhaseRefreshing)

		var resp LoginResponse
		if err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", nil, &resp, true, false); err != nil {
			c.store.Clear()
			return "", err
		}
		if err := c.store.SetToken(resp.AccessToken); err != nil {
			return "", err
		}
		return resp.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// GetCurrentUser fetches the full profile, including permissions, and caches
// it on the session store.
func (c *Client) GetCurrentUser(ctx context.Context) (*session.User, error) {
	var resp MeResponse
	if err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, &resp, true, true); err != nil {
		return nil, err
	}

	user := &session.User{
		Username:    resp.Username,
		Role:        resp.Role,
		Permissions: resp.Permissions,
	}
	if err := c.store.SetUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ValidateSession is the startup gate: refresh proactively when the token is
// near expiry, then confirm validity by fetching the current user. Any
// failure clears the session and returns false.
func (c *Client) ValidateSession(ctx context.Context) bool {
	if !c.store.HasStoredAuth() {
		return false
	}

	if c.store.TokenExpiringSoon(c.refreshBuffer) {
		if _, err := c.RefreshToken(ctx); err != nil {
			logging.Warnf("proactive refresh failed: %v", err)
			c.store.Clear()
			return false
		}
	}

	if _, err := c.GetCurrentUser(ctx); err != nil {
		logging.Warnf("session validation failed: %v", err)
		c.store.Clear()
		return false
	}
	return true
}

// Logout clears the session. The backend holds no server-side session state
// for this client, so no request is needed.
func (c *Client) Logout() {
	c.store.Clear()
	logging.Infof("logged out")
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends one user message, annotated with the connected region when
// present.
func (c *Client) Chat(ctx context.Context, message, userID, sessionID, region string) (*ChatResponse, error) {
	if !c.sendLimiter.Allow() {
		return nil, ErrRateLimited
	}

	req := ChatRequest{
		Message:   message,
		UserID:    userID,
		SessionID: sessionID,
		Region:    region,
	}

	var resp ChatResponse
	if err := c.doRequest(ctx, http.MethodPost, "/chat", req, &resp, true, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmOperation completes a pending two-step operation.
func (c *Client) ConfirmOperation(ctx context.Context, confirmationID string) (*ChatResponse, error) {
	var resp ChatResponse
	err := c.doRequest(ctx, http.MethodPost, "/chat/confirm", ConfirmRequest{ConfirmationID: confirmationID}, &resp, true, true)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// REGION OPERATIONS
// =============================================================================

// ListRegions returns the available regions and their connection map.
func (c *Client) ListRegions(ctx context.Context) (*RegionsResponse, error) {
	var resp RegionsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/regions/", nil, &resp, true, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConnectRegion connects to a single region.
func (c *Client) ConnectRegion(ctx context.Context, region string) (*RegionActionResponse, error) {
	var resp RegionActionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/regions/connect", RegionRequest{Region: region}, &resp, true, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DisconnectRegion disconnects from a single region.
func (c *Client) DisconnectRegion(ctx context.Context, region string) (*RegionActionResponse, error) {
	var resp RegionActionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/regions/disconnect", RegionRequest{Region: region}, &resp, true, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegionStatus returns the authoritative connection map.
func (c *Client) RegionStatus(ctx context.Context) (*RegionStatusResponse, error) {
	var resp RegionStatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/regions/status", nil, &resp, true, true); err != nil {
		return nil, err
	}
	return &resp, nil
}
