// Package apidowntest provides test doubles for code that uses apidown:
// a controllable HTTP target, a manual clock and a counting Validator.
package apidowntest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"
)

// Server is an HTTP target whose health can be flipped at runtime.
// Every path answers 200 when healthy and 503 otherwise.
type Server struct {
	*httptest.Server

	mu      sync.RWMutex
	healthy bool
	status  int // status returned when unhealthy
	delay   time.Duration
	hits    atomic.Int64
}

// NewServer starts a healthy Server. Close it when done.
func NewServer() *Server {
	s := &Server{healthy: true, status: http.StatusServiceUnavailable}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	healthy, status, delay := s.state()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if healthy {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(status)
}

func (s *Server) state() (bool, int, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy, s.status, s.delay
}

// SetHealthy switches between 200 and the failure status.
func (s *Server) SetHealthy(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = v
}

// SetFailureStatus sets the status code answered while unhealthy (default 503).
func (s *Server) SetFailureStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// SetDelay delays every response by d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Hits returns the number of requests served.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// Clock is a manually advanced clock. The zero value is not usable; use NewClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Validator is a Validator stub that returns a settable answer and counts calls.
type Validator struct {
	ok    atomic.Bool
	calls atomic.Int64

	// Hook, if set, runs inside every IsOK call before the answer is read.
	Hook func()
}

// NewValidator returns a Validator answering ok.
func NewValidator(ok bool) *Validator {
	v := &Validator{}
	v.ok.Store(ok)
	return v
}

// IsOK implements apidown.Validator.
func (v *Validator) IsOK() bool {
	v.calls.Add(1)
	if v.Hook != nil {
		v.Hook()
	}
	return v.ok.Load()
}

// Set changes the answer.
func (v *Validator) Set(ok bool) {
	v.ok.Store(ok)
}

// Calls returns how many times IsOK ran.
func (v *Validator) Calls() int64 {
	return v.calls.Load()
}
