package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"mvsat/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ── Per-IP token buckets ──────────────────────────────────────────────────────
// One rate.Limiter per client IP, kept in an expiring cache so IPs that stop
// calling are dropped without a purge goroutine of our own.

type limiters struct {
	porIP *cache.Cache
	limit rate.Limit
	burst int
}

func newLimiters(limit int, window time.Duration) *limiters {
	ttl := 2 * window
	if ttl < 5*time.Minute {
		ttl = 5 * time.Minute
	}
	return &limiters{
		porIP: cache.New(ttl, ttl),
		limit: rate.Limit(float64(limit) / window.Seconds()),
		burst: limit,
	}
}

func (l *limiters) get(ip string) *rate.Limiter {
	if v, ok := l.porIP.Get(ip); ok {
		l.porIP.SetDefault(ip, v) // refresh expiry
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	// Add loses to a concurrent insert; use whichever got stored
	if err := l.porIP.Add(ip, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.porIP.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func limitar(l *limiters, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := l.get(c.ClientIP()).Reserve()
		if d := r.Delay(); d > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter allows 20 login attempts per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return limitar(newLimiters(20, time.Minute), "Muitas tentativas de login. Tente novamente em 1 minuto.")
}

// RateLimiter allows limit requests per window per IP, in bursts up to limit.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return limitar(newLimiters(limit, window), "Muitas requisições. Tente novamente em instantes.")
}
