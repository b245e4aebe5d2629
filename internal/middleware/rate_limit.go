package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientShare is how many sessions' worth of requests one client address may
// make. Several customers can sit behind the same address.
const clientShare = 4

// SessionLimiter hands out one token bucket per session id and a wider one per
// client address, so minting new session ids does not buy more requests.
type SessionLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*sessionBucket
	lastSweep time.Time
}

type sessionBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewSessionLimiter(rps float64, burst int) *SessionLimiter {
	return &SessionLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
		limiters: map[string]*sessionBucket{},
	}
}

// Allow takes a token from the bucket of sessionID.
func (l *SessionLimiter) Allow(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.takeLocked("session:"+sessionID, l.rps, l.burst)
}

// AllowClient takes a token from both the session bucket and the client
// address bucket.
func (l *SessionLimiter) AllowClient(addr, sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.takeLocked("addr:"+addr, l.rps*clientShare, l.burst*clientShare) {
		return false
	}
	return l.takeLocked("session:"+sessionID, l.rps, l.burst)
}

func (l *SessionLimiter) takeLocked(key string, limit rate.Limit, burst int) bool {
	now := l.now()
	l.sweepLocked(now)

	b, ok := l.limiters[key]
	if !ok {
		b = &sessionBucket{limiter: rate.NewLimiter(limit, burst)}
		l.limiters[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweepLocked drops idle buckets, at most once per idle period.
func (l *SessionLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	l.lastSweep = now
	for key, b := range l.limiters {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.limiters, key)
		}
	}
}

func (l *SessionLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Limit must run after RequireSessionID. The client address is read from
// RemoteAddr, which chi's RealIP has already rewritten.
func (l *SessionLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.AllowClient(clientAddr(r), GetSessionID(r.Context())) {
			w.Header().Set("Retry-After", "1")
			WriteError(w, r, http.StatusTooManyRequests, "muitas tentativas, aguarde um instante")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
