package apidown

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

var (
	resultOK                = CheckResult{Category: StatusOK, Detail: "ok"}
	resultTimeout           = CheckResult{Category: StatusTimeout, Detail: "timeout"}
	resultConnectionRefused = CheckResult{Category: StatusConnectionError, Detail: "connection_refused"}
	resultDNS               = CheckResult{Category: StatusDNSError, Detail: "dns_error"}
	resultTLS               = CheckResult{Category: StatusTLSError, Detail: "tls_error"}
	resultUnhealthy         = CheckResult{Category: StatusUnhealthy, Detail: "unhealthy"}
	resultError             = CheckResult{Category: StatusError, Detail: "error"}
)

type classifyRule struct {
	match  func(error) bool
	result CheckResult
}

// classifyRules are tried in order. Package sentinels come first so a probe
// can override what the platform error would say.
var classifyRules = []classifyRule{
	{is(ErrTimeout), resultTimeout},
	{is(ErrConnectionRefused), resultConnectionRefused},
	{is(ErrUnhealthy), resultUnhealthy},
	{isTimeout, resultTimeout},
	{is(syscall.ECONNREFUSED), resultConnectionRefused},
	{as[*net.DNSError], resultDNS},
	{isTLSError, resultTLS},
	// Drivers that flatten errors into strings (pgx, go-ldap, amqp).
	{contains("connection refused"), resultConnectionRefused},
	{contains("tls:", "x509:"), resultTLS},
}

// Classify maps a probe error to the CheckResult used in logs and metrics.
// A ClassifiedError anywhere in the chain wins; otherwise classifyRules
// decide, and anything unmatched is error/error. nil is ok/ok.
func Classify(err error) CheckResult {
	if err == nil {
		return resultOK
	}

	var ce ClassifiedError
	if errors.As(err, &ce) {
		return CheckResult{Category: ce.StatusCategory(), Detail: ce.StatusDetail()}
	}

	for _, r := range classifyRules {
		if r.match(err) {
			return r.result
		}
	}
	return resultError
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func contains(subs ...string) func(error) bool {
	return func(err error) bool {
		msg := err.Error()
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

// isTimeout covers context deadlines and every net.Error that reports a
// timeout, including http.Client's own Timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isTLSError(err error) bool {
	return as[*tls.CertificateVerificationError](err) ||
		as[x509.UnknownAuthorityError](err) ||
		as[x509.HostnameError](err) ||
		as[x509.CertificateInvalidError](err) ||
		as[tls.RecordHeaderError](err) ||
		as[tls.AlertError](err)
}
