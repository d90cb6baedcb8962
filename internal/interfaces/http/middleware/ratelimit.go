package middleware

import (
	"net/http"
	"strconv"

	"github.com/erp/layaway/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

// RateLimit throttles requests per client IP, scoped by store when the store
// header is present. Rejections are recorded on events when it is non-nil.
func RateLimit(limiter *security.Limiter, events *security.EventLogger) gin.HandlerFunc {
	return RateLimitByKey(limiter, events, func(c *gin.Context) string {
		key := c.ClientIP()
		if storeID := c.GetHeader(StoreIDHeader); storeID != "" {
			key = storeID + ":" + key
		}
		return key
	})
}

// RateLimitByKey returns a rate limiting middleware with a custom key extractor
func RateLimitByKey(limiter *security.Limiter, events *security.EventLogger, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if !limiter.Allow(key) {
			if events != nil {
				events.Record(security.Event{
					Type:      security.EventRateLimited,
					ClientIP:  c.ClientIP(),
					Path:      c.Request.URL.Path,
					StoreID:   c.GetHeader(StoreIDHeader),
					RequestID: c.GetString(RequestIDContextKey),
					Detail:    "key " + key,
				})
			}
			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
