package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	CleanupInterval   time.Duration
}

var (
	// StrictRateLimit guards credential endpoints.
	StrictRateLimit = RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         10,
		CleanupInterval:   5 * time.Minute,
	}

	// StandardRateLimit covers the authenticated API surface.
	StandardRateLimit = RateLimitConfig{
		RequestsPerSecond: 30,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   RateLimitConfig
}

func NewIPRateLimiter(config RateLimitConfig) *IPRateLimiter {
	l := &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
	}
	go l.cleanupLoop()
	return l
}

func (i *IPRateLimiter) limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	l, ok := i.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Limit(i.config.RequestsPerSecond), i.config.BurstSize)
		i.limiters[ip] = l
	}
	return l
}

// cleanupLoop drops buckets that have refilled completely, i.e. idle IPs.
func (i *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(i.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		for ip, l := range i.limiters {
			if l.Tokens() == float64(i.config.BurstSize) {
				delete(i.limiters, ip)
			}
		}
		i.mu.Unlock()
	}
}

// clientIP prefers proxy headers over the socket address.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" && net.ParseIP(realIP) != nil {
		return realIP
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.limiter(clientIP(c)).Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
