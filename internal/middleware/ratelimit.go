package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/i18n"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client identifier. Buckets idle
// longer than ExpiresIn are dropped on the next sweep.
type RateLimiter struct {
	Rate      rate.Limit
	Burst     int
	ExpiresIn time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per client and minute, with a
// burst of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &RateLimiter{
		Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
		visitors:  map[string]*visitor{},
		now:       time.Now,
	}
}

// Allow consumes one token for id.
func (l *RateLimiter) Allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > l.ExpiresIn {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ExpiresIn {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.Rate, l.Burst)}
		l.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Limit returns middleware that rejects clients over their budget with 429.
// Only unsafe methods are counted, so rendering a form is always allowed.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		ip := ClientIP(r)
		if !l.Allow(ip) {
			zerolog.Ctx(r.Context()).Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limited")
			w.Header().Set("Retry-After", strconv.Itoa(int(1/float64(l.Rate))+1))
			if auth.WantsJSON(r) {
				httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
				return
			}
			http.Error(w, i18n.T(i18n.LangFrom(r.Context()), "rate_limited"), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
