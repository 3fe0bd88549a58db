package apidown

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout indicates that a probe exceeded its deadline.
	ErrTimeout = errors.New("probe timeout")
	// ErrConnectionRefused indicates that the connection to the target was refused.
	ErrConnectionRefused = errors.New("connection refused")
	// ErrUnhealthy indicates that the target answered with a failure status.
	ErrUnhealthy = errors.New("target unhealthy")
)

// Validator reports whether a target is reachable right now.
//
// Implementations must bound their own duration and must never surface errors:
// a refused connection, a DNS failure, a timeout or a failure status all
// translate to false. Validators do not retry.
type Validator interface {
	IsOK() bool
}

// ValidatorFunc adapts an ordinary function to the Validator interface.
type ValidatorFunc func() bool

// IsOK calls f().
func (f ValidatorFunc) IsOK() bool {
	return f()
}

// HealthChecker is the error-returning probe contract used by the protocol
// probes (HTTP, TCP, gRPC, Postgres, etc.). Wrap one with NewProbe to obtain
// a Validator.
type HealthChecker interface {
	// Check probes the configured target once.
	// Returns nil if the target is reachable, or an error describing the failure.
	// The context carries the timeout deadline.
	Check(ctx context.Context) error

	// Type returns the probe kind (e.g. "http", "postgres").
	Type() string
}

// Clock is the time source used for cache expiry.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f().
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
