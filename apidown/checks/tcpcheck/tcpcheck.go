// Package tcpcheck provides a TCP connect probe for apidown.
//
// Import this package to make tcp:// targets available:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/tcpcheck"
package tcpcheck

import (
	"context"
	"fmt"
	"net"

	"github.com/BigKAA/apidown/apidown"
)

func init() {
	apidown.RegisterCheckerFactory("tcp", NewFromConfig)
}

// Checker reports a target reachable if a TCP connection can be opened
// within the context deadline. No data is exchanged.
type Checker struct {
	addr string
}

// New creates a TCP probe for addr (host:port).
func New(addr string) *Checker {
	return &Checker{addr: addr}
}

// NewFromConfig creates a TCP probe from a tcp://host:port target.
func NewFromConfig(tc apidown.TargetConfig) (apidown.HealthChecker, error) {
	return New(tc.Target.Addr()), nil
}

// Check dials the target and closes the connection right away.
func (c *Checker) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("tcp dial %s: %w", c.addr, err)
	}
	_ = conn.Close()
	return nil
}

// Addr returns the dialed address.
func (c *Checker) Addr() string {
	return c.addr
}

// Type returns the probe kind.
func (c *Checker) Type() string {
	return "tcp"
}
