package apidown

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single probe when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// Probe turns a HealthChecker into a Validator.
// Each IsOK call runs the checker once under its own timeout, recovers
// panics, classifies the failure for logs and collapses the outcome to a bool.
type Probe struct {
	checker HealthChecker
	name    string
	timeout time.Duration
	logger  *slog.Logger

	// observe is set by Checker for the probes it builds itself.
	observe func(CheckResult)
}

// WithProbeTimeout sets the per-probe deadline (default 5s).
func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *Probe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithProbeLogger sets the logger used to report probe failures.
func WithProbeLogger(l *slog.Logger) ProbeOption {
	return func(p *Probe) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProbeName sets the target name reported in logs (default: checker type).
func WithProbeName(name string) ProbeOption {
	return func(p *Probe) {
		p.name = name
	}
}

func withObserver(fn func(CheckResult)) ProbeOption {
	return func(p *Probe) {
		p.observe = fn
	}
}

// NewProbe wraps checker in a Validator.
func NewProbe(checker HealthChecker, opts ...ProbeOption) *Probe {
	p := &Probe{
		checker: checker,
		name:    checker.Type(),
		timeout: DefaultTimeout,
		logger:  discardLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IsOK reports whether the wrapped checker succeeded within the timeout.
func (p *Probe) IsOK() bool {
	return p.Run(context.Background()) == nil
}

// Run executes the wrapped checker once and returns its raw error.
// The probe timeout is applied on top of ctx.
func (p *Probe) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.safeCheck(ctx)
	duration := time.Since(start)

	result := Classify(err)
	if p.observe != nil {
		p.observe(result)
	}

	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "apidown: probe failed",
			slog.String("target", p.name),
			slog.String("type", p.checker.Type()),
			slog.String("status", string(result.Category)),
			slog.String("detail", result.Detail),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return err
	}

	p.logger.LogAttrs(ctx, slog.LevelDebug, "apidown: probe succeeded",
		slog.String("target", p.name),
		slog.String("type", p.checker.Type()),
		slog.Duration("duration", duration),
	)
	return nil
}

// Checker returns the wrapped HealthChecker.
func (p *Probe) Checker() HealthChecker {
	return p.checker
}

// safeCheck calls checker.Check with panic recovery.
func (p *Probe) safeCheck(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in health checker: %v", r)
		}
	}()
	return p.checker.Check(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
