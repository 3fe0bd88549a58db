package grpccheck

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/BigKAA/apidown/apidown"
)

// testHealthServer answers Health/Check with a fixed status, per service.
type testHealthServer struct {
	healthpb.UnimplementedHealthServer
	statuses  map[string]healthpb.HealthCheckResponse_ServingStatus
	wantToken string
}

func (s *testHealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if s.wantToken != "" {
		md, _ := metadata.FromIncomingContext(ctx)
		if got := md.Get("authorization"); len(got) == 0 || got[0] != "Bearer "+s.wantToken {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
	}
	st, ok := s.statuses[req.GetService()]
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown service")
	}
	return &healthpb.HealthCheckResponse{Status: st}, nil
}

func startTestGRPCServer(t *testing.T, hs *testHealthServer) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start TCP listener: %v", err)
	}

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(srv.Stop)

	return ln.Addr().String()
}

func serving(services ...string) *testHealthServer {
	hs := &testHealthServer{statuses: map[string]healthpb.HealthCheckResponse_ServingStatus{
		"": healthpb.HealthCheckResponse_SERVING,
	}}
	for _, s := range services {
		hs.statuses[s] = healthpb.HealthCheckResponse_SERVING
	}
	return hs
}

func TestChecker_Check_Serving(t *testing.T) {
	addr := startTestGRPCServer(t, serving())

	if err := New(addr).Check(context.Background()); err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
}

func TestChecker_Check_NotServing(t *testing.T) {
	addr := startTestGRPCServer(t, &testHealthServer{statuses: map[string]healthpb.HealthCheckResponse_ServingStatus{
		"": healthpb.HealthCheckResponse_NOT_SERVING,
	}})

	err := New(addr).Check(context.Background())
	if err == nil {
		t.Fatal("expected error for NOT_SERVING, got nil")
	}
	if !errors.Is(err, apidown.ErrUnhealthy) {
		t.Errorf("expected ErrUnhealthy, got: %v", err)
	}
	if r := apidown.Classify(err); r.Detail != "grpc_not_serving" {
		t.Errorf("detail = %q, want grpc_not_serving", r.Detail)
	}
}

func TestChecker_Check_ServiceName(t *testing.T) {
	addr := startTestGRPCServer(t, serving("orders.v1.Orders"))

	if err := New(addr, WithServiceName("orders.v1.Orders")).Check(context.Background()); err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if err := New(addr, WithServiceName("billing.v1.Billing")).Check(context.Background()); err == nil {
		t.Error("expected error for unknown service, got nil")
	}
}

func TestChecker_Check_BearerToken(t *testing.T) {
	hs := serving()
	hs.wantToken = "s3cret"
	addr := startTestGRPCServer(t, hs)

	if err := New(addr, WithBearerToken("s3cret")).Check(context.Background()); err != nil {
		t.Errorf("expected success, got error: %v", err)
	}

	err := New(addr, WithBearerToken("wrong")).Check(context.Background())
	if r := apidown.Classify(err); r.Category != apidown.StatusAuthError {
		t.Errorf("expected auth_error, got %s (%v)", r.Category, err)
	}
}

func TestChecker_Check_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if err := New(addr).Check(context.Background()); err == nil {
		t.Error("expected error for closed port, got nil")
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		url         string
		wantAddr    string
		wantService string
		wantTLS     bool
	}{
		{"grpc://orders.svc:9090", "orders.svc:9090", "", false},
		{"grpc://orders.svc:9090/orders.v1.Orders", "orders.svc:9090", "orders.v1.Orders", false},
		{"grpcs://api.example.com", "api.example.com:443", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			hc, err := apidown.NewHealthChecker(tt.url, nil)
			if err != nil {
				t.Fatalf("NewHealthChecker: %v", err)
			}
			c := hc.(*Checker)
			if c.addr != tt.wantAddr || c.serviceName != tt.wantService || c.tlsEnabled != tt.wantTLS {
				t.Errorf("got addr=%q service=%q tls=%v", c.addr, c.serviceName, c.tlsEnabled)
			}
			if c.Type() != "grpc" {
				t.Errorf("Type() = %q", c.Type())
			}
		})
	}
}
