package ratelimit

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gardenkit/guildscore/internal/errors"
	"github.com/gardenkit/guildscore/internal/monitoring"
)

// Middleware enforces the per-IP budget and sets standard rate limit
// headers on every response.
func Middleware(limiter *Limiter, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.AllowIP(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			metrics.IncrementRateLimitBlock()
			retryAfter := res.RetryAfter.Round(1e9).String()
			c.Header("Retry-After", retryAfter)

			appErr := apperrors.NewRateLimitError(retryAfter)
			apperrors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}
