package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

// IPRateLimiter keeps one token bucket per client IP
type IPRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*ipClient
	perMinute int
	lastSweep time.Time
	now       func() time.Time
}

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows requestsPerMinute per IP with a burst of the same size
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		clients:   make(map[string]*ipClient),
		perMinute: requestsPerMinute,
		now:       time.Now,
	}
}

// Allow takes a token for ip
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &ipClient{limiter: rate.NewLimiter(rate.Every(l.RetryAfter()), l.perMinute)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RetryAfter is the wait before a rejected client gets its next token
func (l *IPRateLimiter) RetryAfter() time.Duration {
	if l.perMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(l.perMinute)
}

// RateLimit rejects requests over the limiter's budget through reject.
// Probe endpoints are never limited.
func RateLimit(limiter *IPRateLimiter, reject func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(max(limiter.RetryAfter().Round(time.Second), time.Second) / time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) || limiter.Allow(clientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", retryAfter)
			reject(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
