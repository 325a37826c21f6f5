package middleware

import (
	"time"

	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/gin-gonic/gin"
	goCache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// clientLimiters hands out one token bucket per client ip.
// Every use slides the bucket's expiry, so only buckets idle for idleTTL are dropped.
type clientLimiters struct {
	limiters *goCache.Cache
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

func newClientLimiters(rps float64, burst int, idleTTL time.Duration) *clientLimiters {
	return &clientLimiters{
		limiters: goCache.New(idleTTL, idleTTL),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
	}
}

func (l *clientLimiters) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.limiters.Set(key, lim, l.idleTTL)
		return lim
	}

	lim := rate.NewLimiter(l.rps, l.burst)
	if err := l.limiters.Add(key, lim, l.idleTTL); err != nil {
		// another request created the bucket first
		if v, ok := l.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// RateLimit limits each client ip to rps requests per second with the given burst.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	return rateLimit(newClientLimiters(rps, burst, limiterIdleTTL))
}

func rateLimit(limiters *clientLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.Error(ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, please slow down").
				Mark(ierr.ErrRateLimited))
			c.Abort()
			return
		}
		c.Next()
	}
}
