// Package grpccheck provides a gRPC Health Checking Protocol probe for apidown.
//
// Import this package to make grpc:// and grpcs:// targets available:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/grpccheck"
//
// The URL path, if any, is used as the health service name:
// grpc://orders.svc:9090/orders.v1.Orders checks that service, grpc://orders.svc:9090
// checks the whole server. grpcs:// enables TLS.
package grpccheck

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/BigKAA/apidown/apidown"
)

func init() {
	apidown.RegisterCheckerFactory("grpc", NewFromConfig)
	apidown.RegisterCheckerFactory("grpcs", NewFromConfig)
}

// Option configures the Checker.
type Option func(*Checker)

// Checker calls grpc.health.v1.Health/Check on a fresh connection per probe.
// The probe succeeds if the answer is SERVING.
type Checker struct {
	addr          string
	serviceName   string
	tlsEnabled    bool
	tlsSkipVerify bool
	metadata      map[string]string
}

// WithServiceName sets the service to check. Empty checks the whole server.
func WithServiceName(name string) Option {
	return func(c *Checker) {
		c.serviceName = name
	}
}

// WithTLS enables TLS.
func WithTLS(enabled bool) Option {
	return func(c *Checker) {
		c.tlsEnabled = enabled
	}
}

// WithTLSSkipVerify disables certificate verification.
func WithTLSSkipVerify(skip bool) Option {
	return func(c *Checker) {
		c.tlsSkipVerify = skip
	}
}

// WithMetadata adds outgoing metadata to the health call.
func WithMetadata(md map[string]string) Option {
	return func(c *Checker) {
		maps.Copy(c.metadata, md)
	}
}

// WithBearerToken sends authorization: Bearer <token>.
func WithBearerToken(token string) Option {
	return func(c *Checker) {
		c.metadata["authorization"] = "Bearer " + token
	}
}

// WithBasicAuth sends authorization: Basic <base64(username:password)>.
func WithBasicAuth(username, password string) Option {
	return func(c *Checker) {
		encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		c.metadata["authorization"] = "Basic " + encoded
	}
}

// New creates a gRPC probe for addr (host:port).
func New(addr string, opts ...Option) *Checker {
	c := &Checker{
		addr:     addr,
		metadata: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a probe from a grpc:// or grpcs:// target.
func NewFromConfig(tc apidown.TargetConfig) (apidown.HealthChecker, error) {
	u, err := url.Parse(tc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse grpc url: %w", err)
	}
	return New(tc.Target.Addr(),
		WithServiceName(strings.Trim(u.Path, "/")),
		WithTLS(tc.Target.Scheme == "grpcs"),
	), nil
}

// Check dials, sends the health request and closes the connection.
func (c *Checker) Check(ctx context.Context) error {
	var creds grpc.DialOption
	if c.tlsEnabled {
		tlsCfg := &tls.Config{
			InsecureSkipVerify: c.tlsSkipVerify, //nolint:gosec // configurable by user
		}
		creds = grpc.WithTransportCredentials(credentials.NewTLS(tlsCfg))
	} else {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	}

	conn, err := grpc.NewClient("passthrough:///"+c.addr, creds)
	if err != nil {
		return fmt.Errorf("grpc new client %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if len(c.metadata) > 0 {
		ctx = metadata.NewOutgoingContext(ctx, metadata.New(c.metadata))
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{
		Service: c.serviceName,
	})
	if err != nil {
		if s, ok := status.FromError(err); ok {
			switch s.Code() {
			case codes.Unauthenticated, codes.PermissionDenied:
				return apidown.AuthError(fmt.Errorf("grpc health check %s: %w", c.addr, err))
			case codes.DeadlineExceeded:
				return fmt.Errorf("grpc health check %s: %w", c.addr, apidown.ErrTimeout)
			}
		}
		return fmt.Errorf("grpc health check %s: %w", c.addr, err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		detail := "grpc_unknown"
		if resp.GetStatus() == healthpb.HealthCheckResponse_NOT_SERVING {
			detail = "grpc_not_serving"
		}
		return apidown.UnhealthyError(detail, fmt.Errorf("grpc health status %s from %s", resp.GetStatus(), c.addr))
	}
	return nil
}

// Type returns the probe kind.
func (c *Checker) Type() string {
	return "grpc"
}
