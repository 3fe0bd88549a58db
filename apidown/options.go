package apidown

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults.
const (
	// DefaultTTL is how long a fresh decision is reused.
	DefaultTTL = 10 * time.Second
	// DefaultTrustedURL is the known-good reference probed when no trusted target is set.
	DefaultTrustedURL = "https://google.com"
)

// Configuration errors returned by New.
var (
	ErrMissingUntrusted = errors.New("missing untrusted target: pass Check or CheckURL")
	ErrInvalidTTL       = errors.New("ttl must be positive")
	ErrNilValidator     = errors.New("nil validator")
)

// Option is a functional option for New.
type Option func(*config) error

// config is the internal configuration of a Checker.
type config struct {
	untrusted       Validator
	untrustedHealth HealthChecker
	untrustedURL    string
	trusted         Validator
	trustedHealth   HealthChecker
	trustedURL      string

	client     *http.Client
	logger     *slog.Logger
	ttl        time.Duration
	timeout    time.Duration
	clock      Clock
	registerer prometheus.Registerer
}

// --- Targets ---

// Check sets the untrusted target: the API whose outage is being detected.
// A Validator takes precedence over a URL set with CheckURL.
func Check(v Validator) Option {
	return func(c *config) error {
		if v == nil {
			return fmt.Errorf("untrusted target: %w", ErrNilValidator)
		}
		c.untrusted = v
		return nil
	}
}

// CheckHealth sets the untrusted target to a HealthChecker. It is wrapped in a
// Probe with the Checker's timeout, logger and metrics.
// It takes precedence over CheckURL.
func CheckHealth(hc HealthChecker) Option {
	return func(c *config) error {
		if hc == nil {
			return fmt.Errorf("untrusted target: %w", ErrNilValidator)
		}
		c.untrustedHealth = hc
		return nil
	}
}

// CheckURL sets the untrusted target by URL. The probe is chosen by scheme.
func CheckURL(rawURL string) Option {
	return func(c *config) error {
		c.untrustedURL = rawURL
		return nil
	}
}

// Trust sets the trusted reference target.
// A Validator takes precedence over a URL set with TrustURL.
func Trust(v Validator) Option {
	return func(c *config) error {
		if v == nil {
			return fmt.Errorf("trusted target: %w", ErrNilValidator)
		}
		c.trusted = v
		return nil
	}
}

// TrustHealth sets the trusted reference target to a HealthChecker.
// It takes precedence over TrustURL.
func TrustHealth(hc HealthChecker) Option {
	return func(c *config) error {
		if hc == nil {
			return fmt.Errorf("trusted target: %w", ErrNilValidator)
		}
		c.trustedHealth = hc
		return nil
	}
}

// TrustURL sets the trusted reference target by URL.
func TrustURL(rawURL string) Option {
	return func(c *config) error {
		c.trustedURL = rawURL
		return nil
	}
}

// TrustGoogle uses DefaultTrustedURL as the trusted target.
func TrustGoogle() Option {
	return TrustURL(DefaultTrustedURL)
}

// --- Ambient ---

// WithClient sets the HTTP client shared by URL-built HTTP probes.
// By default a new client is created and shared by both targets.
// The client must not use a Transport built from the same Checker:
// a failing probe would call IsDown while IsDown holds its lock.
func WithClient(client *http.Client) Option {
	return func(c *config) error {
		c.client = client
		return nil
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithTTL sets how long a decision is reused (default 10s).
func WithTTL(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
		}
		c.ttl = d
		return nil
	}
}

// WithTimeout sets the per-probe timeout of URL-built probes (default 5s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.timeout = d
		return nil
	}
}

// WithClock sets the time source used for cache expiry.
func WithClock(clock Clock) Option {
	return func(c *config) error {
		if clock == nil {
			return errors.New("nil clock")
		}
		c.clock = clock
		return nil
	}
}

// WithRegisterer enables Prometheus metrics on the given registerer.
// Metrics are disabled by default.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) error {
		c.registerer = r
		return nil
	}
}

// FromConfig applies a Config. Zero fields leave the current value untouched.
func FromConfig(cfg Config) Option {
	return func(c *config) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.UntrustedURL != "" {
			c.untrustedURL = cfg.UntrustedURL
		}
		if cfg.TrustedURL != "" {
			c.trustedURL = cfg.TrustedURL
		}
		if cfg.TTL > 0 {
			c.ttl = cfg.TTL
		}
		if cfg.Timeout > 0 {
			c.timeout = cfg.Timeout
		}
		return nil
	}
}

// buildValidator resolves one target into a Validator.
// Precedence: Validator, then HealthChecker, then URL.
func (c *config) buildValidator(role string, v Validator, hc HealthChecker, rawURL string, m *MetricsExporter) (Validator, error) {
	if v != nil {
		return v, nil
	}
	opts := []ProbeOption{
		WithProbeTimeout(c.timeout),
		WithProbeLogger(c.logger),
		withObserver(m.statusObserver(role)),
	}
	if hc != nil {
		return NewProbe(hc, opts...), nil
	}
	p, err := NewValidator(rawURL, c.client, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s target: %w", role, err)
	}
	return p, nil
}
