// Package kafkacheck provides a Kafka broker probe for apidown.
//
// Import this package to make kafka:// targets available:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/kafkacheck"
package kafkacheck

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/BigKAA/apidown/apidown"
)

func init() {
	apidown.RegisterCheckerFactory("kafka", NewFromConfig)
}

// Checker connects to one broker and asks for broker metadata.
// Only the given broker is contacted; the rest of the cluster is not probed.
type Checker struct {
	addr   string
	dialer *kafka.Dialer
}

// New creates a Kafka probe for addr (host:port).
func New(addr string) *Checker {
	return &Checker{addr: addr, dialer: &kafka.Dialer{}}
}

// NewFromConfig creates a probe from a kafka://host:port target.
func NewFromConfig(tc apidown.TargetConfig) (apidown.HealthChecker, error) {
	return New(tc.Target.Addr()), nil
}

// Check dials the broker, reads metadata and closes the connection.
func (c *Checker) Check(ctx context.Context) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("kafka dial %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	brokers, err := conn.Brokers()
	if err != nil {
		return fmt.Errorf("kafka brokers %s: %w", c.addr, err)
	}
	if len(brokers) == 0 {
		return apidown.UnhealthyError("no_brokers", fmt.Errorf("kafka %s: no brokers in metadata response", c.addr))
	}
	return nil
}

// Type returns the probe kind.
func (c *Checker) Type() string {
	return "kafka"
}
