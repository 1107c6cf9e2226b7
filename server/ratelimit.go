package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterCleanupInterval = 5 * time.Minute

// loginLimiter rate limits login attempts per remote address so a stolen
// assertion cannot be brute-forced against the verifier.
type loginLimiter struct {
	ratePerMin float64
	burst      int

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	stopCh   chan struct{}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLoginLimiter(ratePerMin float64, burst int) *loginLimiter {
	l := &loginLimiter{
		ratePerMin: ratePerMin,
		burst:      burst,
		limiters:   make(map[string]*clientLimiter),
		stopCh:     make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *loginLimiter) Allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.limiters[host]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.ratePerMin/60.0), l.burst)}
		l.limiters[host] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter.Allow()
}

func (l *loginLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *loginLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-limiterCleanupInterval)
	for host, cl := range l.limiters {
		if cl.lastAccess.Before(cutoff) {
			delete(l.limiters, host)
		}
	}
}

func (l *loginLimiter) Stop() {
	close(l.stopCh)
}

func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loginLimiter.Allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"error":"rate_limited","error_description":"Too many login attempts"}`, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
