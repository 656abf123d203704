package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"tahanan/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore holds a map of client addresses to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

var limiterStore = &rateLimiterStore{
	limiters: make(map[string]*rate.Limiter),
}

// getLimiter returns the rate limiter for a client address, creating one
// sized by MAX_REQUESTS_PER_MIN on first use.
func (s *rateLimiterStore) getLimiter(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[addr]
	if !exists {
		perMin := config.AppConfig.MaxRequestsPerMin
		if perMin <= 0 {
			perMin = 100
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
		s.limiters[addr] = limiter
	}
	return limiter
}

// clientAddr resolves the client address, preferring proxy headers over the
// socket peer. X-Forwarded-For may carry a chain; the first hop is the
// client.
func clientAddr(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}

// RateLimitMiddleware limits requests per client address.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := clientAddr(c)
		if !limiterStore.getLimiter(addr).Allow() {
			zap.L().Warn("rate limit exceeded", zap.String("addr", addr))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
