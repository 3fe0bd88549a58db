package apidown

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPorts maps URL schemes to the port used when the URL has none.
var DefaultPorts = map[string]string{
	"http":       "80",
	"https":      "443",
	"tcp":        "",
	"grpc":       "443",
	"grpcs":      "443",
	"postgres":   "5432",
	"postgresql": "5432",
	"mysql":      "3306",
	"redis":      "6379",
	"rediss":     "6379",
	"amqp":       "5672",
	"amqps":      "5671",
	"kafka":      "9092",
	"ldap":       "389",
	"ldaps":      "636",
}

// Target is a parsed probe target.
type Target struct {
	URL    string // original URL, unmodified
	Scheme string // lower-cased scheme
	Host   string // host without brackets for IPv6
	Port   string
}

// Addr returns host:port suitable for dialing.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// ParseTarget parses a probe URL and extracts scheme, host and port.
// Missing ports are filled from DefaultPorts. Schemes without a default
// port (tcp://) require an explicit one.
func ParseTarget(rawURL string) (Target, error) {
	if rawURL == "" {
		return Target{}, fmt.Errorf("empty URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return Target{}, fmt.Errorf("missing scheme in URL %q", rawURL)
	}

	host, port, err := extractHostPort(u.Host, DefaultPorts[scheme])
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	return Target{URL: rawURL, Scheme: scheme, Host: host, Port: port}, nil
}

// extractHostPort splits a host:port string, applying default port if missing.
// Handles IPv6 addresses in brackets: [::1]:5432 → host=::1, port=5432.
func extractHostPort(hostPort, defaultPort string) (string, string, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		host = hostPort
		port = defaultPort

		if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
			host = host[1 : len(host)-1]
		}
	}

	if host == "" {
		return "", "", fmt.Errorf("empty host")
	}
	if port == "" {
		return "", "", fmt.Errorf("missing port for host %q", host)
	}
	if err := validatePort(port); err != nil {
		return "", "", err
	}
	return host, port, nil
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range [1, 65535]", n)
	}
	return nil
}

// secretParams are query parameters whose values never reach logs or errors.
var secretParams = []string{"password", "token", "secret"}

// redactURL hides the password of a URL so it can be logged.
// An unparsable URL is dropped whole, since it may still carry credentials.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return redact(u)
}

// redact masks the userinfo password and the values of secretParams.
func redact(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Redacted()
	}
	q := u.Query()
	masked := false
	for _, k := range secretParams {
		if q.Has(k) {
			q.Set(k, "xxxxx")
			masked = true
		}
	}
	if !masked {
		return u.Redacted()
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.Redacted()
}
