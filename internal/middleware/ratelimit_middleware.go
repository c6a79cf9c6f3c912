package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hooksink/internal/redis"
	hookerrors "hooksink/pkg/errors"
	"hooksink/pkg/logger"
)

// RateLimitMiddleware throttles webhook submissions per source IP. A nil
// limiter disables throttling (no Redis configured). Limiter outages fail
// open.
func RateLimitMiddleware(limiter *redis.RateLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := limiter.AllowWebhook(c.Request.Context(), c.ClientIP())
		if err != nil {
			if l != nil {
				l.Warnf("rate limit check failed, failing open: %v", err)
			}
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":    hookerrors.ErrRateLimited.Error(),
				"reset_in": result.ResetIn.Seconds(),
			})
			return
		}
		c.Next()
	}
}
