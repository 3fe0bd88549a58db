// Package ldapcheck provides an LDAP probe for apidown.
//
// Import this package to make ldap:// and ldaps:// targets available:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/ldapcheck"
//
// URL targets read the RootDSE by default. Query parameters select another
// method: ldap://dir.svc/?method=anonymous_bind,
// ldap://:secret@dir.svc/?method=simple_bind&bind_dn=cn=probe,dc=corp,
// or ldap://dir.svc/?starttls=true. The bind password is taken from the URL
// userinfo; a password query parameter is still accepted.
package ldapcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/BigKAA/apidown/apidown"
)

func init() {
	apidown.RegisterCheckerFactory("ldap", NewFromConfig)
	apidown.RegisterCheckerFactory("ldaps", NewFromConfig)
}

const dialTimeout = 3 * time.Second

// CheckMethod is what the probe does once connected.
type CheckMethod string

const (
	MethodAnonymousBind CheckMethod = "anonymous_bind"
	MethodSimpleBind    CheckMethod = "simple_bind"
	MethodRootDSE       CheckMethod = "root_dse"
)

// Option configures the Checker.
type Option func(*Checker)

// Checker connects to an LDAP server, runs the check method and disconnects.
type Checker struct {
	addr          string
	host          string
	checkMethod   CheckMethod
	bindDN        string
	bindPassword  string
	useTLS        bool // ldaps://
	startTLS      bool
	tlsSkipVerify bool
}

// WithCheckMethod sets the check method (default root_dse).
func WithCheckMethod(method CheckMethod) Option {
	return func(c *Checker) {
		c.checkMethod = method
	}
}

// WithSimpleBind switches to simple_bind with the given credentials.
func WithSimpleBind(dn, password string) Option {
	return func(c *Checker) {
		c.checkMethod = MethodSimpleBind
		c.bindDN = dn
		c.bindPassword = password
	}
}

// WithTLS connects with LDAPS.
func WithTLS(enabled bool) Option {
	return func(c *Checker) {
		c.useTLS = enabled
	}
}

// WithStartTLS upgrades a plain connection with StartTLS.
func WithStartTLS(enabled bool) Option {
	return func(c *Checker) {
		c.startTLS = enabled
	}
}

// WithTLSSkipVerify disables certificate verification.
func WithTLSSkipVerify(skip bool) Option {
	return func(c *Checker) {
		c.tlsSkipVerify = skip
	}
}

// New creates an LDAP probe for addr (host:port).
func New(addr string, opts ...Option) *Checker {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	c := &Checker{
		addr:        addr,
		host:        host,
		checkMethod: MethodRootDSE,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a probe from an ldap:// or ldaps:// target.
func NewFromConfig(tc apidown.TargetConfig) (apidown.HealthChecker, error) {
	u, err := url.Parse(tc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ldap url: %w", err)
	}
	q := u.Query()

	opts := []Option{WithTLS(tc.Target.Scheme == "ldaps")}
	switch m := CheckMethod(q.Get("method")); m {
	case "", MethodRootDSE, MethodAnonymousBind:
		if m != "" {
			opts = append(opts, WithCheckMethod(m))
		}
	case MethodSimpleBind:
		if q.Get("bind_dn") == "" {
			return nil, errors.New("ldap simple_bind requires bind_dn")
		}
		password := q.Get("password")
		if pw, ok := u.User.Password(); ok {
			password = pw
		}
		opts = append(opts, WithSimpleBind(q.Get("bind_dn"), password))
	default:
		return nil, fmt.Errorf("unknown ldap check method %q", m)
	}
	for _, flag := range []struct {
		name string
		opt  func(bool) Option
	}{
		{"starttls", WithStartTLS},
		{"insecure", WithTLSSkipVerify},
	} {
		if v := q.Get(flag.name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("ldap %s=%q: %w", flag.name, v, err)
			}
			opts = append(opts, flag.opt(b))
		}
	}
	return New(tc.Target.Addr(), opts...), nil
}

// Check dials, runs the check method and closes the connection.
func (c *Checker) Check(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return classifyError(err, c.addr)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}

	if c.startTLS && !c.useTLS {
		if err := conn.StartTLS(c.tlsConfig()); err != nil {
			return classifyError(err, c.addr)
		}
	}

	if err := c.run(conn); err != nil {
		return classifyError(err, c.addr)
	}
	return nil
}

func (c *Checker) dial(ctx context.Context) (*ldap.Conn, error) {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dialer := &net.Dialer{Timeout: timeout}

	if c.useTLS {
		return ldap.DialURL("ldaps://"+c.addr,
			ldap.DialWithDialer(dialer),
			ldap.DialWithTLSConfig(c.tlsConfig()),
		)
	}
	return ldap.DialURL("ldap://"+c.addr, ldap.DialWithDialer(dialer))
}

func (c *Checker) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         c.host,
		InsecureSkipVerify: c.tlsSkipVerify, //nolint:gosec // user-configurable
	}
}

func (c *Checker) run(conn *ldap.Conn) error {
	switch c.checkMethod {
	case MethodAnonymousBind:
		return conn.UnauthenticatedBind("")
	case MethodSimpleBind:
		return conn.Bind(c.bindDN, c.bindPassword)
	default:
		req := ldap.NewSearchRequest(
			"",
			ldap.ScopeBaseObject,
			ldap.NeverDerefAliases,
			1, // sizeLimit
			0, // timeLimit
			false,
			"(objectClass=*)",
			[]string{"namingContexts"},
			nil,
		)
		_, err := conn.Search(req)
		return err
	}
}

// classifyError maps LDAP result codes. Network errors are left to apidown.Classify.
func classifyError(err error, target string) error {
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		switch ldapErr.ResultCode {
		case ldap.LDAPResultInvalidCredentials, ldap.LDAPResultInsufficientAccessRights:
			return apidown.AuthError(fmt.Errorf("ldap %s: %w", target, err))
		case ldap.LDAPResultBusy, ldap.LDAPResultUnavailable, ldap.LDAPResultUnwillingToPerform:
			return apidown.UnhealthyError("", fmt.Errorf("ldap %s: %w", target, err))
		}
	}
	return fmt.Errorf("ldap %s: %w", target, err)
}

// Type returns the probe kind.
func (c *Checker) Type() string {
	return "ldap"
}
