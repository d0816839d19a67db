package middleware

import (
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginRateLimit throttles credential attempts per client IP. Buckets
// refill at r tokens per second with a burst of b; idle buckets are
// dropped after an hour so the map cannot grow without bound.
func LoginRateLimit(r rate.Limit, b int) gin.HandlerFunc {
	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	sweep := func(now time.Time) {
		for ip, bk := range buckets {
			if now.Sub(bk.lastSeen) > time.Hour {
				delete(buckets, ip)
			}
		}
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		bk, ok := buckets[ip]
		if !ok {
			if len(buckets) > 10000 {
				sweep(now)
			}
			bk = &bucket{limiter: rate.NewLimiter(r, b)}
			buckets[ip] = bk
		}
		bk.lastSeen = now
		allowed := bk.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(stdhttp.StatusTooManyRequests, gin.H{
				"status":  "fail",
				"message": "Demasiados intentos, intenta de nuevo más tarde",
			})
			return
		}
		c.Next()
	}
}
