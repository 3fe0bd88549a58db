// Package pgcheck provides a PostgreSQL probe for apidown.
//
// Import this package to make postgres:// and postgresql:// targets available:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/pgcheck"
package pgcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/BigKAA/apidown/apidown"
)

func init() {
	apidown.RegisterCheckerFactory("postgres", NewFromConfig)
	apidown.RegisterCheckerFactory("postgresql", NewFromConfig)
}

// Option configures the Checker.
type Option func(*Checker)

// Checker runs a query against PostgreSQL.
// Supports two modes:
//   - Standalone: opens a connection from the DSN for every probe
//   - Pool: uses an existing *sql.DB
type Checker struct {
	db    *sql.DB // nil = standalone
	dsn   string
	query string
}

// WithDB switches the probe to pool mode. The DSN is then ignored.
func WithDB(db *sql.DB) Option {
	return func(c *Checker) {
		c.db = db
	}
}

// WithQuery sets the probe query (default "SELECT 1").
func WithQuery(query string) Option {
	return func(c *Checker) {
		c.query = query
	}
}

// New creates a PostgreSQL probe for dsn.
func New(dsn string, opts ...Option) *Checker {
	c := &Checker{
		dsn:   dsn,
		query: "SELECT 1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a standalone probe; the target URL is used as the DSN.
func NewFromConfig(tc apidown.TargetConfig) (apidown.HealthChecker, error) {
	return New(tc.URL), nil
}

// Check runs the probe query.
func (c *Checker) Check(ctx context.Context) error {
	if c.db != nil {
		return c.run(ctx, c.db, "pool")
	}

	db, err := sql.Open("pgx", c.dsn)
	if err != nil {
		return fmt.Errorf("postgres open: %w", err)
	}
	defer func() { _ = db.Close() }()

	return c.run(ctx, db, c.host())
}

func (c *Checker) run(ctx context.Context, db *sql.DB, target string) error {
	rows, err := db.QueryContext(ctx, c.query)
	if err != nil {
		return classifyError(err, target)
	}
	return rows.Close()
}

// host returns the DSN host for error messages, never the credentials.
func (c *Checker) host() string {
	cfg, err := pgconn.ParseConfig(c.dsn)
	if err != nil {
		return "postgres"
	}
	return cfg.Host
}

// classifyError marks SQLSTATE 28000/28P01 as auth errors and 57P03
// (cannot_connect_now, server starting or shutting down) as unhealthy.
func classifyError(err error, target string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidAuthorizationSpecification, pgerrcode.InvalidPassword:
			return authError(err, target)
		case pgerrcode.CannotConnectNow:
			return apidown.UnhealthyError("", fmt.Errorf("postgres %s: %w", target, err))
		}
	}
	if strings.Contains(err.Error(), "password authentication failed") {
		return authError(err, target)
	}
	return fmt.Errorf("postgres query %s: %w", target, err)
}

func authError(err error, target string) error {
	return apidown.AuthError(fmt.Errorf("postgres %s: %w", target, err))
}

// Type returns the probe kind.
func (c *Checker) Type() string {
	return "postgres"
}
