// Package ratelimit enforces sliding-window quotas over a shared Redis
// instance, scoped per IP, per API key, or globally per bucket key.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Scope selects which identity a quota constrains.
type Scope int

const (
	// ScopeIP keys the window by client IP.
	ScopeIP Scope = iota
	// ScopeKey keys the window by API key and requires one to be present.
	ScopeKey
	// ScopeGlobal keys the window by bucket key alone, across all clients.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeIP:
		return "ip"
	case ScopeKey:
		return "key"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Quota allows Limit requests per Period within its scope.
type Quota struct {
	Limit  uint32
	Period time.Duration
	Scope  Scope
}

// PerIP declares an IP-scoped quota.
func PerIP(limit uint32, period time.Duration) Quota {
	return Quota{Limit: limit, Period: period, Scope: ScopeIP}
}

// PerKey declares a key-scoped quota.
func PerKey(limit uint32, period time.Duration) Quota {
	return Quota{Limit: limit, Period: period, Scope: ScopeKey}
}

// Global declares a global quota shared by all clients of a bucket.
func Global(limit uint32, period time.Duration) Quota {
	return Quota{Limit: limit, Period: period, Scope: ScopeGlobal}
}

// Status describes one quota's window at the time of the check. The window
// read happens after the current request's timestamp was added, so
// RequestsInWindow already excludes the current request (the raw set length
// minus one).
type Status struct {
	Quota            Quota
	RequestsInWindow int64
	OldestRequest    time.Time
}

// Remaining is how many further requests the window accepts.
func (s Status) Remaining() uint32 {
	if s.RequestsInWindow >= int64(s.Quota.Limit) {
		return 0
	}
	return s.Quota.Limit - uint32(s.RequestsInWindow)
}

// Exceeded reports whether the current request must be denied.
func (s Status) Exceeded() bool { return s.Remaining() == 0 }

// RetryAfter is the time until the window accepts another request; zero when
// not exceeded.
func (s Status) RetryAfter(now time.Time) time.Duration {
	if !s.Exceeded() || s.OldestRequest.IsZero() {
		return 0
	}
	wait := s.OldestRequest.Add(s.Quota.Period).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Headers renders the RateLimit-* response headers announced on denials.
func (s Status) Headers(now time.Time) http.Header {
	reset := int64(s.RetryAfter(now).Seconds())
	h := http.Header{}
	h.Set("RateLimit-Limit", strconv.FormatUint(uint64(s.Quota.Limit), 10))
	h.Set("RateLimit-Period", strconv.FormatInt(int64(s.Quota.Period.Seconds()), 10))
	h.Set("RateLimit-Remaining", strconv.FormatUint(uint64(s.Remaining()), 10))
	h.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))
	h.Set("Retry-After", strconv.FormatInt(reset, 10))
	return h
}

// Error kinds raised by Apply; the middleware maps them onto HTTP statuses.
var (
	// ErrAuthRequired means the declaration only carries key-scope quotas
	// and no valid API key was presented.
	ErrAuthRequired = fmt.Errorf("api key required for this endpoint")
	// ErrEmergencyMode means emergency mode is on and no valid key was
	// presented.
	ErrEmergencyMode = fmt.Errorf("service temporarily restricted to api key holders")
)

// ExceededError carries the quota status whose window denied the request.
type ExceededError struct {
	Status Status
	Now    time.Time
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%s per %s, retry after %s",
		e.Status.Quota.Limit, e.Status.Quota.Period, e.Status.Quota.Scope, e.Status.RetryAfter(e.Now))
}
