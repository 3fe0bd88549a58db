// Package apidown tells "the API I depend on is down" apart from "my own
// network is down".
//
// A Checker probes an untrusted target (the API) and, only when that fails,
// a trusted reference target (by default https://google.com). The API is
// reported down only when the reference answers and the API does not. The
// decision is cached for a short window (10s by default) so callers can ask
// on every failed request without hammering either target.
//
//	checker, err := apidown.New(
//		apidown.CheckURL("https://api.example.com/health"),
//		apidown.WithLogger(slog.Default()),
//	)
//	if err != nil {
//		return err
//	}
//	if checker.IsDown() {
//		// skip the fallback, surface an outage
//	}
//
// URL targets use the HTTP probe out of the box. Other schemes (postgres://,
// redis://, grpc://, ...) become available by importing their packages:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks"
package apidown

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Checker decides whether the untrusted API is down. It is safe for concurrent use.
type Checker struct {
	untrusted Validator
	trusted   Validator
	clock     Clock
	ttl       time.Duration
	logger    *slog.Logger
	metrics   *MetricsExporter

	// mu serializes the whole read-or-refresh sequence of IsDown.
	mu         sync.Mutex
	checked    bool
	lastResult bool
	lastCheck  time.Time
}

// New creates a Checker from functional options.
// It fails if no untrusted target was given; a missing trusted target
// defaults to DefaultTrustedURL.
func New(opts ...Option) (*Checker, error) {
	cfg := config{
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		clock:   SystemClock,
	}
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, fmt.Errorf("apidown: %w", err)
		}
	}

	if cfg.untrusted == nil && cfg.untrustedHealth == nil && cfg.untrustedURL == "" {
		return nil, fmt.Errorf("apidown: %w", ErrMissingUntrusted)
	}
	if cfg.trusted == nil && cfg.trustedHealth == nil && cfg.trustedURL == "" {
		cfg.trustedURL = DefaultTrustedURL
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}
	if cfg.client == nil {
		cfg.client = &http.Client{}
	}

	var metrics *MetricsExporter
	if cfg.registerer != nil {
		metrics = newMetricsExporter()
	}

	untrusted, err := cfg.buildValidator(RoleUntrusted, cfg.untrusted, cfg.untrustedHealth, cfg.untrustedURL, metrics)
	if err != nil {
		return nil, fmt.Errorf("apidown: %w", err)
	}
	trusted, err := cfg.buildValidator(RoleTrusted, cfg.trusted, cfg.trustedHealth, cfg.trustedURL, metrics)
	if err != nil {
		return nil, fmt.Errorf("apidown: %w", err)
	}

	if metrics != nil {
		if err := metrics.register(cfg.registerer); err != nil {
			return nil, fmt.Errorf("apidown: metrics: %w", err)
		}
	}

	return &Checker{
		untrusted: untrusted,
		trusted:   trusted,
		clock:     cfg.clock,
		ttl:       cfg.ttl,
		logger:    cfg.logger,
		metrics:   metrics,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Checker {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// IsDown reports whether the untrusted API is down while the network is fine.
//
// A decision made at time T is returned unchanged for every call up to and
// including T+TTL. After that the next call probes again and blocks for up
// to two probe timeouts. Concurrent callers on an expired cache share a
// single probe.
func (c *Checker) IsDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.checked && !c.lastCheck.Add(c.ttl).Before(now) {
		c.metrics.ObserveCache(true)
		return c.lastResult
	}
	c.metrics.ObserveCache(false)

	result := c.requestIsDown()
	c.lastCheck, c.lastResult, c.checked = now, result, true
	return result
}

// requestIsDown runs the two-step probe.
// Both targets unreachable is reported as not down: the API is not blamed
// for a failure the reference shares.
func (c *Checker) requestIsDown() bool {
	c.logger.Info("apidown: failure intercepted, checking whether the API is down")

	if c.probe(RoleUntrusted, c.untrusted) {
		c.logger.Info("apidown: untrusted target is OK, false alarm")
		c.metrics.ObserveDecision(DecisionFalseAlarm)
		return false
	}

	c.logger.Info("apidown: untrusted target is not OK, checking trusted target")
	if c.probe(RoleTrusted, c.trusted) {
		c.logger.Warn("apidown: trusted target is OK, the API seems to be down")
		c.metrics.ObserveDecision(DecisionAPIDown)
		return true
	}

	c.logger.Warn("apidown: trusted target is not OK, not the API's fault")
	c.metrics.ObserveDecision(DecisionNetworkDown)
	return false
}

func (c *Checker) probe(role string, v Validator) bool {
	start := time.Now()
	ok := v.IsOK()
	c.metrics.ObserveProbe(role, ok, time.Since(start))
	return ok
}

// Untrusted returns the Validator of the untrusted target.
func (c *Checker) Untrusted() Validator {
	return c.untrusted
}

// Trusted returns the Validator of the trusted target.
func (c *Checker) Trusted() Validator {
	return c.trusted
}

// Logger returns the logger in use.
func (c *Checker) Logger() *slog.Logger {
	return c.logger
}

// TTL returns the cache window.
func (c *Checker) TTL() time.Duration {
	return c.ttl
}
