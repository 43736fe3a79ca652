package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

type IPRateLimiter struct {
	ips    map[string]*rateLimiterWithTime
	mu     sync.Mutex
	rate   rate.Limit
	burst  int
	expiry time.Duration
}

type rateLimiterWithTime struct {
	limiter   *rate.Limiter
	lastUsage time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*rateLimiterWithTime),
		rate:   r,
		burst:  b,
		expiry: time.Hour,
	}
}

// cleanup drops limiters of clients that have been idle longer than expiry.
func (i *IPRateLimiter) cleanup(now time.Time) {
	for ip, wrapper := range i.ips {
		if now.Sub(wrapper.lastUsage) > i.expiry {
			delete(i.ips, ip)
		}
	}
}

func (i *IPRateLimiter) Allow(ip string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	wrapper, exists := i.ips[ip]
	if !exists {
		i.cleanup(now)
		wrapper = &rateLimiterWithTime{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.ips[ip] = wrapper
	}
	wrapper.lastUsage = now

	return wrapper.limiter.Allow()
}

func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ApiResponse[any]{
				Status:  http.StatusTooManyRequests,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}
