package apidown

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
)

// Version is reported in the User-Agent of HTTP probes.
const Version = "0.4.0"

// maxDrainBytes caps how much of a probe response body is read before closing,
// so keep-alive connections can be reused without downloading large pages.
const maxDrainBytes = 64 << 10

// HTTPOption configures the HTTPChecker.
type HTTPOption func(*HTTPChecker)

// HTTPChecker probes a URL with a single lightweight HTTP request.
// The check succeeds if the response status code is 2xx or 3xx.
// Redirects are not followed: a redirect answer already proves reachability.
type HTTPChecker struct {
	url     string
	method  string
	client  *http.Client
	headers map[string]string
}

// WithHTTPClient sets the client used to send the probe.
// The client's Transport and Timeout are reused; its redirect policy is not.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPChecker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithHTTPMethod sets the request method (default GET).
func WithHTTPMethod(method string) HTTPOption {
	return func(c *HTTPChecker) {
		c.method = method
	}
}

// WithHeaders adds custom request headers.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(c *HTTPChecker) {
		maps.Copy(c.headers, headers)
	}
}

// WithBearerToken sets an Authorization: Bearer header.
func WithBearerToken(token string) HTTPOption {
	return func(c *HTTPChecker) {
		c.headers["Authorization"] = "Bearer " + token
	}
}

// WithBasicAuth sets an Authorization: Basic header.
func WithBasicAuth(username, password string) HTTPOption {
	return func(c *HTTPChecker) {
		encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		c.headers["Authorization"] = "Basic " + encoded
	}
}

// NewHTTPChecker creates an HTTP probe for rawURL.
func NewHTTPChecker(rawURL string, opts ...HTTPOption) *HTTPChecker {
	c := &HTTPChecker{
		url:     rawURL,
		method:  http.MethodGet,
		client:  &http.Client{},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHTTPFromConfig is the factory registered for http:// and https://.
func newHTTPFromConfig(tc TargetConfig) (HealthChecker, error) {
	return NewHTTPChecker(tc.URL, WithHTTPClient(tc.HTTPClient)), nil
}

// Check sends the probe request.
// Returns nil for 2xx/3xx, a classified unhealthy error for other statuses,
// or the transport error.
func (c *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, c.method, c.url, nil)
	if err != nil {
		return fmt.Errorf("http create request: %w", err)
	}
	req.Header.Set("User-Agent", "apidown/"+Version)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.noRedirectClient().Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redactURL(ue.URL)
		}
		return fmt.Errorf("http request %s: %w", redactURL(c.url), err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		category := StatusUnhealthy
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			category = StatusAuthError
		}
		return &ClassifiedCheckError{
			Category: category,
			Detail:   "http_" + strconv.Itoa(resp.StatusCode),
			Cause:    fmt.Errorf("http status %d from %s: %w", resp.StatusCode, redactURL(c.url), ErrUnhealthy),
		}
	}

	return nil
}

// noRedirectClient returns a shallow copy of the shared client that stops at
// the first response. The copy shares the Transport, so connections are pooled.
func (c *HTTPChecker) noRedirectClient() *http.Client {
	cl := *c.client
	cl.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &cl
}

// URL returns the probed URL.
func (c *HTTPChecker) URL() string {
	return c.url
}

// Type returns the probe kind.
func (c *HTTPChecker) Type() string {
	return "http"
}
