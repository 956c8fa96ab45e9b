// Package middleware holds gin middleware shared by every route.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"matchamap/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rateLimitBlocked = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "matchamap_rate_limit_blocked_total",
		Help: "Requests rejected by the per-client rate limiter",
	},
	[]string{"path"},
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	interval time.Duration
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per client per minute, with bursts up to perMinute.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		interval: time.Minute / time.Duration(perMinute),
		burst:    perMinute,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rate.Every(rl.interval), rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter
}

// Cleanup forgets clients idle for longer than the idle TTL and returns how many were dropped.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	dropped := 0
	for key, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			dropped++
		}
	}
	return dropped
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.get(utils.GetRealClientIP(c))
		if !limiter.AllowN(rl.now(), 1) {
			rateLimitBlocked.WithLabelValues(routePath(c)).Inc()

			retryAfter := int(math.Ceil(rl.interval.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
