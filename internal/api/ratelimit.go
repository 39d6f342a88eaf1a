package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

// clientLimiters keeps one token bucket per client address
type clientLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleLimiterTTL drops buckets for clients not seen recently
const idleLimiterTTL = 10 * time.Minute

func newClientLimiters(perSecond float64, burst int) *clientLimiters {
	return &clientLimiters{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
	}
}

func (c *clientLimiters) allow(client string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, cl := range c.limiters {
		if now.Sub(cl.lastSeen) > idleLimiterTTL {
			delete(c.limiters, key)
		}
	}

	cl, ok := c.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitMiddleware applies the local token bucket to every request
func rateLimitMiddleware(perSecond float64, burst int) mux.MiddlewareFunc {
	limiters := newClientLimiters(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(clientAddr(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sharedLimitMiddleware applies the Redis sliding window shared by every API instance.
// Redis errors let the request through.
func sharedLimitMiddleware(limiter *redis.RateLimiter, cfg redis.RateLimitConfig, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, err := limiter.Allow(r.Context(), cfg, clientAddr(r))
			if err != nil {
				log.WithError(err).Warn("Shared rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
