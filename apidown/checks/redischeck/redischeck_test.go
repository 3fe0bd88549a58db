package redischeck

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/BigKAA/apidown/apidown"
)

func TestChecker_Check_PoolMode(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	if err := New("ignored:6379", WithClient(client)).Check(context.Background()); err != nil {
		t.Errorf("expected success in pool mode, got error: %v", err)
	}
}

func TestChecker_Check_Standalone(t *testing.T) {
	mr := miniredis.RunT(t)

	if err := New(mr.Addr()).Check(context.Background()); err != nil {
		t.Errorf("expected success in standalone mode, got error: %v", err)
	}
}

func TestChecker_Check_Standalone_WithPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	if err := New(mr.Addr(), WithPassword("secret")).Check(context.Background()); err != nil {
		t.Errorf("expected success with password, got error: %v", err)
	}
}

func TestChecker_Check_Standalone_WrongPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	err := New(mr.Addr(), WithPassword("wrong")).Check(context.Background())
	if err == nil {
		t.Fatal("expected error for wrong password, got nil")
	}
	if r := apidown.Classify(err); r.Category != apidown.StatusAuthError {
		t.Errorf("expected auth_error, got %s (%v)", r.Category, err)
	}
}

func TestChecker_Check_Standalone_WithDB(t *testing.T) {
	mr := miniredis.RunT(t)

	if err := New(mr.Addr(), WithDB(2)).Check(context.Background()); err != nil {
		t.Errorf("expected success with DB=2, got error: %v", err)
	}
}

func TestChecker_Check_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	err = New(addr).Check(context.Background())
	if err == nil {
		t.Fatal("expected error for closed port, got nil")
	}
	if r := apidown.Classify(err); r.Category != apidown.StatusConnectionError {
		t.Errorf("expected connection_error, got %s (%v)", r.Category, err)
	}
}

func TestChecker_Check_ServerGone(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if err := New(addr).Check(context.Background()); err == nil {
		t.Error("expected error after server shutdown, got nil")
	}
}

func TestNewFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	raw := fmt.Sprintf("redis://:secret@%s/3", mr.Addr())
	hc, err := apidown.NewHealthChecker(raw, nil)
	if err != nil {
		t.Fatalf("NewHealthChecker: %v", err)
	}
	c := hc.(*Checker)
	if c.opts.Password != "secret" || c.opts.DB != 3 || c.opts.Addr != mr.Addr() {
		t.Errorf("opts = addr %q db %d", c.opts.Addr, c.opts.DB)
	}
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if c.Type() != "redis" {
		t.Errorf("Type() = %q", c.Type())
	}
}

func TestNewFromConfig_DefaultPort(t *testing.T) {
	hc, err := apidown.NewHealthChecker("rediss://cache.svc", nil)
	if err != nil {
		t.Fatalf("NewHealthChecker: %v", err)
	}
	c := hc.(*Checker)
	if c.opts.Addr != "cache.svc:6379" {
		t.Errorf("addr = %q", c.opts.Addr)
	}
	if c.opts.TLSConfig == nil {
		t.Error("rediss:// must enable TLS")
	}
}
