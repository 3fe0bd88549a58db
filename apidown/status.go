package apidown

import (
	"encoding/json"
	"time"
)

// Status is a read-only snapshot of the cached decision.
type Status struct {
	Down      *bool         `json:"down"` // nil before the first check
	CheckedAt time.Time     `json:"checked_at"`
	TTL       time.Duration `json:"-"`
	Fresh     bool          `json:"fresh"` // true if IsDown would answer from cache now
}

// statusJSON is the JSON representation of Status.
type statusJSON struct {
	Down       *bool      `json:"down"`
	CheckedAt  *time.Time `json:"checked_at"`
	TTLSeconds float64    `json:"ttl_seconds"`
	Fresh      bool       `json:"fresh"`
}

// MarshalJSON writes the TTL in seconds and checked_at as null before the first check.
func (s Status) MarshalJSON() ([]byte, error) {
	j := statusJSON{
		Down:       s.Down,
		TTLSeconds: s.TTL.Seconds(),
		Fresh:      s.Fresh,
	}
	if !s.CheckedAt.IsZero() {
		t := s.CheckedAt.UTC()
		j.CheckedAt = &t
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var j statusJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.Down = j.Down
	s.TTL = time.Duration(j.TTLSeconds * float64(time.Second))
	s.Fresh = j.Fresh
	s.CheckedAt = time.Time{}
	if j.CheckedAt != nil {
		s.CheckedAt = *j.CheckedAt
	}
	return nil
}

// Status returns the cached decision without probing.
// It waits for an in-flight probe to finish.
func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{TTL: c.ttl}
	if !c.checked {
		return st
	}
	down := c.lastResult
	st.Down = &down
	st.CheckedAt = c.lastCheck
	st.Fresh = !c.lastCheck.Add(c.ttl).Before(c.clock.Now())
	return st
}
