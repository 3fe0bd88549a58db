package apidown

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// TargetConfig is passed to a CheckerFactory when a Validator is built from a URL.
type TargetConfig struct {
	URL        string
	Target     Target
	HTTPClient *http.Client // shared client; only HTTP probes use it
}

// CheckerFactory builds a HealthChecker for a URL target.
type CheckerFactory func(tc TargetConfig) (HealthChecker, error)

// checkerFactories is the registry of factories by URL scheme.
var checkerFactories = map[string]CheckerFactory{
	"http":  newHTTPFromConfig,
	"https": newHTTPFromConfig,
}

// RegisterCheckerFactory registers a factory for a URL scheme.
// Called from init() of the packages under apidown/checks.
func RegisterCheckerFactory(scheme string, factory CheckerFactory) {
	checkerFactories[strings.ToLower(scheme)] = factory
}

// RegisteredSchemes returns the sorted list of schemes with a factory.
func RegisteredSchemes() []string {
	schemes := make([]string, 0, len(checkerFactories))
	for s := range checkerFactories {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// NewHealthChecker builds a HealthChecker for rawURL using the factory
// registered for its scheme. client may be nil for non-HTTP schemes.
func NewHealthChecker(rawURL string, client *http.Client) (HealthChecker, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	factory, ok := checkerFactories[target.Scheme]
	if !ok {
		return nil, fmt.Errorf("no checker factory registered for scheme %q; import github.com/BigKAA/apidown/apidown/checks", target.Scheme)
	}

	if client == nil {
		client = &http.Client{}
	}
	checker, err := factory(TargetConfig{URL: rawURL, Target: target, HTTPClient: client})
	if err != nil {
		return nil, fmt.Errorf("%s target %q: %w", target.Scheme, rawURL, err)
	}
	return checker, nil
}

// NewValidator builds a Probe for rawURL using the factory registered for its scheme.
func NewValidator(rawURL string, client *http.Client, opts ...ProbeOption) (*Probe, error) {
	checker, err := NewHealthChecker(rawURL, client)
	if err != nil {
		return nil, err
	}
	return NewProbe(checker, append([]ProbeOption{WithProbeName(redactURL(rawURL))}, opts...)...), nil
}
