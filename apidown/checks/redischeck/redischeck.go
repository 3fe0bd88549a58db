// Package redischeck provides a Redis PING probe for apidown.
//
// Import this package to make redis:// and rediss:// targets available:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/redischeck"
package redischeck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BigKAA/apidown/apidown"
)

func init() {
	apidown.RegisterCheckerFactory("redis", NewFromConfig)
	apidown.RegisterCheckerFactory("rediss", NewFromConfig)
}

// standaloneTimeout bounds dial and I/O of standalone probes so a hung
// connection still yields a classifiable network error before the probe deadline.
const standaloneTimeout = 3 * time.Second

// Option configures the Checker.
type Option func(*Checker)

// Checker sends PING to Redis.
// Supports two modes:
//   - Standalone: creates a client per probe from the stored options
//   - Pool: uses an existing redis.Cmdable (Client, ClusterClient, etc.)
type Checker struct {
	client redis.Cmdable // nil = standalone
	opts   redis.Options
}

// WithClient switches the probe to pool mode.
func WithClient(client redis.Cmdable) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// WithPassword sets the password for standalone probes.
func WithPassword(password string) Option {
	return func(c *Checker) {
		c.opts.Password = password
	}
}

// WithDB sets the database number for standalone probes.
func WithDB(db int) Option {
	return func(c *Checker) {
		c.opts.DB = db
	}
}

// New creates a Redis probe for addr (host:port).
func New(addr string, opts ...Option) *Checker {
	c := &Checker{opts: redis.Options{Addr: addr}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a standalone probe from a redis:// or rediss:// URL.
// Credentials, database number and TLS are taken from the URL.
func NewFromConfig(tc apidown.TargetConfig) (apidown.HealthChecker, error) {
	opts, err := redis.ParseURL(tc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addr = tc.Target.Addr()
	return &Checker{opts: *opts}, nil
}

// Check sends PING.
func (c *Checker) Check(ctx context.Context) error {
	if c.client != nil {
		if err := c.client.Ping(ctx).Err(); err != nil {
			return classifyError(err, "pool")
		}
		return nil
	}

	opts := c.opts
	opts.MaxRetries = -1
	opts.DialTimeout = standaloneTimeout
	opts.ReadTimeout = standaloneTimeout
	opts.WriteTimeout = standaloneTimeout
	client := redis.NewClient(&opts)
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return classifyError(err, opts.Addr)
	}
	return nil
}

// classifyError marks NOAUTH/WRONGPASS replies as auth errors.
// Network errors are left to apidown.Classify.
func classifyError(err error, target string) error {
	msg := err.Error()
	if strings.Contains(msg, "NOAUTH") || strings.Contains(msg, "WRONGPASS") {
		return apidown.AuthError(fmt.Errorf("redis %s: %w", target, err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("redis ping %s: %w", target, apidown.ErrTimeout)
	}
	return fmt.Errorf("redis ping %s: %w", target, err)
}

// Type returns the probe kind.
func (c *Checker) Type() string {
	return "redis"
}
