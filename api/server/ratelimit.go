package server

import (
	"net"
	"net/http"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

const (
	// limiterSweepSize is the number of tracked clients above which idle
	// limiters are dropped
	limiterSweepSize = 10_000
	// limiterIdle is the time after which an unused limiter may be dropped
	limiterIdle = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// sessionLimiter limits how many new sessions a single client may create.
// Clients are identified by IPv4 address or IPv6 /64 prefix.
type sessionLimiter struct {
	limit   rate.Limit
	burst   int
	clients *xsync.MapOf[string, *limiterEntry]
	now     func() time.Time
}

// newSessionLimiter creates a limiter allowing perMinute new sessions per
// client with the given burst. A rate of zero disables the limiter.
func newSessionLimiter(perMinute float64, burst int) *sessionLimiter {
	return &sessionLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		clients: xsync.NewMapOf[string, *limiterEntry](),
		now:     time.Now,
	}
}

// Allow reports whether client may create another session now.
func (l *sessionLimiter) Allow(client string) bool {
	if l.limit <= 0 {
		return true
	}

	now := l.now()
	entry, _ := l.clients.LoadOrCompute(client, func() *limiterEntry {
		return &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	entry.lastSeen.Store(now.UnixNano())

	if l.clients.Size() > limiterSweepSize {
		l.sweep(now)
	}
	return entry.limiter.AllowN(now, 1)
}

// sweep drops limiters that were not used for limiterIdle.
func (l *sessionLimiter) sweep(now time.Time) {
	cutoff := now.Add(-limiterIdle).UnixNano()
	l.clients.Range(func(key string, e *limiterEntry) bool {
		if e.lastSeen.Load() < cutoff {
			l.clients.Delete(key)
		}
		return true
	})
}

// clientKey derives the rate limit key of a request. It expects RemoteAddr to
// be rewritten by middleware.RealIP where a proxy is in front of the server.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	addr = addr.Unmap()
	if addr.Is4() {
		return addr.String()
	}
	prefix, err := addr.Prefix(64)
	if err != nil {
		return addr.String()
	}
	return prefix.String()
}
