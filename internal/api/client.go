// Package api is the single choke point for every call to the clinic
// backend. It resolves the tenant base URL per request, attaches the bearer
// token and tenant header, and owns the one-shot refresh-and-retry protocol
// on credential failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dentavia/portal/internal/observability/metrics"
	"github.com/dentavia/portal/internal/tenant"
	"github.com/dentavia/portal/internal/token"
	"github.com/dentavia/portal/pkg/logging"
)

// TenantHeader carries the resolved tenant id on every outbound request,
// sentinel included.
const TenantHeader = "X-Tenant-ID"

const refreshPath = "/api/token/refresh/"

// Client calls the clinic backend.
type Client struct {
	resolver         *tenant.Resolver
	store            token.Store
	httpClient       *http.Client
	logger           *logging.Logger
	metrics          *metrics.ClientMetrics
	limiter          *rate.Limiter
	onSessionExpired func()
	debug            bool
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records request and refresh outcomes on m.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRateLimit throttles outbound calls to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSessionExpiredHook installs the terminal-failure side effect: it runs
// exactly when the session is torn down because no recovery was possible
// (no refresh token, or the refresh call itself failed). The web client
// redirected to /login here.
func WithSessionExpiredHook(hook func()) Option {
	return func(c *Client) {
		c.onSessionExpired = hook
	}
}

// WithDebug enables per-request debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient creates a backend client. The base URL is NOT fixed here: it is
// re-resolved from the tenant resolver on every call, so configuration
// changes between calls take effect immediately.
func NewClient(resolver *tenant.Resolver, store token.Store, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		resolver:   resolver,
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// attempt tracks one logical request through the retry protocol. The retried
// flag lives here, on an explicit per-request record with its own correlation
// id, so nothing shared is mutated.
type attempt struct {
	id      string
	method  string
	path    string
	payload []byte
	retried bool
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH request with a JSON body and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends one API request. body (when non-nil) is marshaled to JSON; a
// 2xx response is decoded into out (when non-nil). On a 401 the client runs
// the refresh-and-retry protocol at most once.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal request body: %w", err)
		}
	}

	att := &attempt{
		id:      uuid.NewString(),
		method:  method,
		path:    path,
		payload: payload,
	}
	return c.send(ctx, att, out)
}

func (c *Client) send(ctx context.Context, att *attempt, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("api: rate limit wait: %w", err)
		}
	}

	// Base URL and tenant are resolved per request, never cached on the
	// client: tenant configuration can change between calls.
	baseURL := c.resolver.APIBaseURL()
	tenantID := c.resolver.TenantID()

	var bodyReader io.Reader
	if att.payload != nil {
		bodyReader = bytes.NewReader(att.payload)
	}

	req, err := http.NewRequestWithContext(ctx, att.method, baseURL+att.path, bodyReader)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if att.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(TenantHeader, tenantID)

	tokens, hasTokens := c.store.ReadTokens()
	if hasTokens {
		req.Header.Set("Authorization", "Bearer "+tokens.Access)
	}

	if c.debug {
		c.logger.Debug("outbound request",
			"request_id", att.id,
			"method", att.method,
			"url", baseURL+att.path,
			"tenant", tenantID,
			"has_token", hasTokens,
			"retried", att.retried,
		)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(att.method, "network_error", time.Since(start))
		return fmt.Errorf("api: %s %s: %w", att.method, att.path, err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(att.method, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("api: decode response: %w", err)
			}
		}
		return nil
	}

	apiErr := newAPIError(resp.StatusCode, respBody)

	if resp.StatusCode == http.StatusUnauthorized && !att.retried {
		return c.recover(ctx, att, out, apiErr)
	}

	// 403/404/400/5xx and an already-retried 401 pass through unchanged.
	return apiErr
}

// recover runs the refresh-and-retry protocol for a first 401 on att.
// Exactly one refresh call and at most one resubmission happen per attempt.
func (c *Client) recover(ctx context.Context, att *attempt, out any, original *APIError) error {
	tokens, ok := c.store.ReadTokens()
	if !ok || tokens.Refresh == "" {
		c.logger.Warn("credential failure with no refresh token, ending session", "request_id", att.id)
		c.metrics.ObserveRefresh("unrecoverable")
		c.terminate()
		return original
	}

	c.logger.Info("access token rejected, refreshing", "request_id", att.id)

	newAccess, err := c.refreshAccessToken(ctx, tokens.Refresh)
	if err != nil {
		c.logger.Warn("token refresh failed, ending session", "request_id", att.id, "error", err)
		c.metrics.ObserveRefresh("failed")
		c.terminate()
		// The refresh failure is the true terminal cause, not the 401.
		return err
	}

	// Persist before resubmitting: the retry must never carry the stale
	// credential.
	if err := c.store.UpdateAccessToken(newAccess); err != nil {
		c.metrics.ObserveRefresh("failed")
		c.terminate()
		return fmt.Errorf("api: store refreshed token: %w", err)
	}

	c.metrics.ObserveRefresh("success")
	att.retried = true
	return c.send(ctx, att, out)
}

// refreshAccessToken calls the refresh endpoint directly, bypassing the
// normal request path so a 401 from the refresh itself cannot recurse.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("api: marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.resolver.APIBaseURL()+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("api: create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantHeader, c.resolver.TenantID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("api: refresh request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("api: read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newAPIError(resp.StatusCode, body)
	}

	var result struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("api: decode refresh response: %w", err)
	}
	if result.Access == "" {
		return "", fmt.Errorf("api: refresh response carried no access token")
	}
	return result.Access, nil
}

// terminate tears the session down after an unrecoverable credential
// failure: storage is cleared and the expiry hook (login redirect in the web
// client) fires.
func (c *Client) terminate() {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear session store", "error", err)
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// Health probes backend reachability. It bypasses the auth/retry path: a
// health check must not mutate session state.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolver.APIBaseURL()+"/api/health/", nil)
	if err != nil {
		return fmt.Errorf("api: create health request: %w", err)
	}
	req.Header.Set(TenantHeader, c.resolver.TenantID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, body)
	}
	return nil
}
