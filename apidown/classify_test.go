package apidown

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

// timeoutError is what net/http wraps when http.Client.Timeout fires.
type timeoutError struct{}

func (timeoutError) Error() string { return "Client.Timeout exceeded while awaiting headers" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantCategory StatusCategory
		wantDetail   string
	}{
		{"nil", nil, StatusOK, "ok"},
		{
			name: "classified",
			err: &ClassifiedCheckError{
				Category: StatusUnhealthy, Detail: "http_503", Cause: errors.New("status 503"),
			},
			wantCategory: StatusUnhealthy, wantDetail: "http_503",
		},
		{
			name:         "wrapped classified",
			err:          fmt.Errorf("probe: %w", &ClassifiedCheckError{Category: StatusAuthError, Detail: "auth_error"}),
			wantCategory: StatusAuthError, wantDetail: "auth_error",
		},
		{
			name: "classified wins over deadline",
			err: &ClassifiedCheckError{
				Category: StatusAuthError, Detail: "auth_error", Cause: context.DeadlineExceeded,
			},
			wantCategory: StatusAuthError, wantDetail: "auth_error",
		},
		{"sentinel timeout", ErrTimeout, StatusTimeout, "timeout"},
		{"sentinel refused", fmt.Errorf("postgres: %w", ErrConnectionRefused), StatusConnectionError, "connection_refused"},
		{"sentinel unhealthy", ErrUnhealthy, StatusUnhealthy, "unhealthy"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), StatusTimeout, "timeout"},
		{"dns", fmt.Errorf("dial: %w", &net.DNSError{Err: "no such host", Name: "api.invalid"}), StatusDNSError, "dns_error"},
		{
			name:         "op error refused",
			err:          &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			wantCategory: StatusConnectionError, wantDetail: "connection_refused",
		},
		{
			name: "url error refused",
			err: &url.Error{Op: "Get", URL: "http://127.0.0.1:1", Err: &net.OpError{
				Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED,
			}},
			wantCategory: StatusConnectionError, wantDetail: "connection_refused",
		},
		{
			name:         "certificate verification",
			err:          &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}},
			wantCategory: StatusTLSError, wantDetail: "tls_error",
		},
		{
			name:         "hostname mismatch",
			err:          fmt.Errorf("ldap: %w", x509.HostnameError{Certificate: &x509.Certificate{}, Host: "dir.svc"}),
			wantCategory: StatusTLSError, wantDetail: "tls_error",
		},
		{"tls alert", fmt.Errorf("handshake: %w", tls.AlertError(40)), StatusTLSError, "tls_error"},
		{
			name:         "http client timeout",
			err:          &url.Error{Op: "Get", URL: "https://api.example.com", Err: timeoutError{}},
			wantCategory: StatusTimeout, wantDetail: "timeout",
		},
		{
			name:         "sentinel wins over deadline",
			err:          fmt.Errorf("ldap busy: %w: %w", context.DeadlineExceeded, ErrUnhealthy),
			wantCategory: StatusUnhealthy, wantDetail: "unhealthy",
		},
		{"tls message", errors.New("tls: handshake failure"), StatusTLSError, "tls_error"},
		{"x509 message", errors.New("x509: certificate signed by unknown authority"), StatusTLSError, "tls_error"},
		{"refused message", errors.New("dial tcp: connection refused"), StatusConnectionError, "connection_refused"},
		{"certificate word alone", errors.New("certificate rotation pending"), StatusError, "error"},
		{"fallback", errors.New("something else"), StatusError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.err)
			if r.Category != tt.wantCategory || r.Detail != tt.wantDetail {
				t.Errorf("Classify() = %s/%s, want %s/%s", r.Category, r.Detail, tt.wantCategory, tt.wantDetail)
			}
		})
	}
}

func TestClassifiedCheckError(t *testing.T) {
	cause := errors.New("connection refused")
	e := &ClassifiedCheckError{Category: StatusConnectionError, Detail: "connection_refused", Cause: cause}

	if e.Error() != "connection refused" {
		t.Errorf("Error() = %q, want cause message", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Error("errors.Is should match the cause")
	}

	bare := &ClassifiedCheckError{Category: StatusUnhealthy, Detail: "grpc_not_serving"}
	if bare.Error() != "grpc_not_serving" {
		t.Errorf("Error() without cause = %q, want detail", bare.Error())
	}

	var ce ClassifiedError
	if !errors.As(errors.Join(errors.New("wrapper"), bare), &ce) {
		t.Fatal("errors.As should find the ClassifiedError")
	}
	if ce.StatusCategory() != StatusUnhealthy || ce.StatusDetail() != "grpc_not_serving" {
		t.Errorf("got %s/%s", ce.StatusCategory(), ce.StatusDetail())
	}
}

func TestUnhealthyError(t *testing.T) {
	cause := errors.New("kafka broker-0:9092: no brokers in metadata response")
	e := UnhealthyError("no_brokers", cause)
	if !errors.Is(e, ErrUnhealthy) || !errors.Is(e, cause) {
		t.Errorf("UnhealthyError must match ErrUnhealthy and the cause: %v", e)
	}
	if r := Classify(e); r.Category != StatusUnhealthy || r.Detail != "no_brokers" {
		t.Errorf("Classify() = %s/%s", r.Category, r.Detail)
	}
	if e.Error() != cause.Error()+": target unhealthy" {
		t.Errorf("Error() = %q", e.Error())
	}

	already := fmt.Errorf("ldap: busy: %w", ErrUnhealthy)
	if e := UnhealthyError("", already); e.Cause != already || e.Detail != "unhealthy" {
		t.Errorf("UnhealthyError(\"\", wrapped) = %+v", e)
	}
	if e := UnhealthyError("grpc_not_serving", nil); !errors.Is(e, ErrUnhealthy) {
		t.Error("nil cause must still match ErrUnhealthy")
	}
}

func TestAuthError(t *testing.T) {
	cause := errors.New("WRONGPASS invalid username-password pair")
	e := AuthError(cause)
	if r := Classify(fmt.Errorf("redis: %w", e)); r.Category != StatusAuthError || r.Detail != "auth_error" {
		t.Errorf("Classify() = %s/%s", r.Category, r.Detail)
	}
	if !errors.Is(e, cause) {
		t.Error("AuthError must unwrap to the cause")
	}
}
