package apidown

import (
	"errors"
	"fmt"
)

// StatusCategory classifies why a probe failed.
// It is used for logging and for the apidown_probe_status_total metric only;
// the down decision never looks at it.
type StatusCategory string

const (
	// StatusOK means the probe succeeded.
	StatusOK StatusCategory = "ok"
	// StatusTimeout means the probe exceeded its deadline.
	StatusTimeout StatusCategory = "timeout"
	// StatusConnectionError means the connection to the target failed.
	StatusConnectionError StatusCategory = "connection_error"
	// StatusDNSError means DNS resolution failed for the target host.
	StatusDNSError StatusCategory = "dns_error"
	// StatusAuthError means the target rejected the probe credentials.
	StatusAuthError StatusCategory = "auth_error"
	// StatusTLSError means a TLS handshake or certificate error occurred.
	StatusTLSError StatusCategory = "tls_error"
	// StatusUnhealthy means the target responded with a failure status.
	StatusUnhealthy StatusCategory = "unhealthy"
	// StatusError means an unclassified error occurred during the probe.
	StatusError StatusCategory = "error"
)

// CheckResult is the classified outcome of one probe.
type CheckResult struct {
	Category StatusCategory
	Detail   string // e.g. "http_503", "grpc_not_serving", "auth_error"
}

// ClassifiedError is implemented by probe errors that know their own category.
// Classify prefers it over inspecting the error chain.
type ClassifiedError interface {
	error
	StatusCategory() StatusCategory
	StatusDetail() string
}

// ClassifiedCheckError is the ClassifiedError returned by the built-in probes.
type ClassifiedCheckError struct {
	Category StatusCategory
	Detail   string
	Cause    error
}

// Error returns the cause's message, or Detail when there is no cause.
func (e *ClassifiedCheckError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Detail
}

// Unwrap returns Cause.
func (e *ClassifiedCheckError) Unwrap() error {
	return e.Cause
}

// StatusCategory implements ClassifiedError.
func (e *ClassifiedCheckError) StatusCategory() StatusCategory {
	return e.Category
}

// StatusDetail implements ClassifiedError.
func (e *ClassifiedCheckError) StatusDetail() string {
	return e.Detail
}

// AuthError reports that the target rejected the probe credentials.
func AuthError(cause error) *ClassifiedCheckError {
	return &ClassifiedCheckError{Category: StatusAuthError, Detail: "auth_error", Cause: cause}
}

// UnhealthyError reports that the target answered but is not serving.
// The cause always matches ErrUnhealthy. An empty detail means "unhealthy".
func UnhealthyError(detail string, cause error) *ClassifiedCheckError {
	if detail == "" {
		detail = string(StatusUnhealthy)
	}
	switch {
	case cause == nil:
		cause = ErrUnhealthy
	case !errors.Is(cause, ErrUnhealthy):
		cause = fmt.Errorf("%w: %w", cause, ErrUnhealthy)
	}
	return &ClassifiedCheckError{Category: StatusUnhealthy, Detail: detail, Cause: cause}
}
