package almanac

import (
	"sync"
	"time"
)

// loginLimiter counts failed admin logins per client IP inside a sliding
// window.
type loginLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

func newLoginLimiter(max int, window time.Duration) *loginLimiter {
	return &loginLimiter{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Blocked reports whether ip has used up its failures for the window.
// Expired failures of ip are dropped on the way.
func (l *loginLimiter) Blocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip)) >= l.max
}

// Fail records a failed login of ip.
func (l *loginLimiter) Fail(ip string) {
	l.mu.Lock()
	l.failures[ip] = append(l.prune(ip), l.now())
	l.mu.Unlock()
}

// Reset forgets the failures of ip after a successful login.
func (l *loginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.failures, ip)
	l.mu.Unlock()
}

func (l *loginLimiter) prune(ip string) []time.Time {
	cutoff := l.now().Add(-l.window)
	hits := l.failures[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, ip)
		return nil
	}
	l.failures[ip] = kept
	return kept
}
