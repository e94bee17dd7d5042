package middleware

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/ratelimit"
)

// RateLimit counts requests per user, or per client IP for anonymous
// callers. A nil limiter or a limiter error lets the request through.
func RateLimit(l *ratelimit.Limiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		clientID := "ip:" + c.ClientIP()
		if user := CurrentUser(c); user != nil {
			clientID = fmt.Sprintf("user:%d", user.ID)
		}

		result, err := l.Check(c.Request.Context(), clientID, action)
		if err != nil {
			log.Printf("Warning: rate limit check failed: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			rateLimitedTotal.WithLabelValues(action).Inc()
			AbortWithError(c, apperr.RateLimited("too many requests").
				WithDetails(fmt.Sprintf("limit of %d reached for %s", result.Limit, action)))
			return
		}
		c.Next()
	}
}
