package apidown

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAPIDown is matched by errors.Is on errors returned by Transport when the
// Checker decided the API is down.
var ErrAPIDown = errors.New("api is down")

// DownError is returned by Transport when a request failed and the Checker
// reports the API down. Cause is the transport error, or nil when the failure
// was a 5xx response.
type DownError struct {
	URL        string
	StatusCode int // 0 for transport errors
	Cause      error
}

func (e *DownError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("apidown: %s: api is down: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("apidown: %s: api is down: status %d", e.URL, e.StatusCode)
}

// Is makes errors.Is(err, ErrAPIDown) true.
func (e *DownError) Is(target error) bool {
	return target == ErrAPIDown
}

// Unwrap returns the underlying transport error.
func (e *DownError) Unwrap() error {
	return e.Cause
}

// Transport is an http.RoundTripper that consults a Checker whenever a
// request fails, so callers can tell an API outage from a local network
// problem. Transport errors and 5xx responses count as failures; anything
// else passes through without a check. Errors of a request whose own
// context is done are returned unchanged.
type Transport struct {
	checker *Checker
	base    http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport if nil).
func NewTransport(checker *Checker, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{checker: checker, base: base}
}

// Interceptor is shorthand for NewTransport(c, base).
func (c *Checker) Interceptor(base http.RoundTripper) *Transport {
	return NewTransport(c, base)
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		if t.checker.IsDown() {
			return nil, &DownError{URL: redact(req.URL), Cause: err}
		}
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError && t.checker.IsDown() {
		_ = resp.Body.Close()
		return nil, &DownError{URL: redact(req.URL), StatusCode: resp.StatusCode}
	}
	return resp, nil
}
