package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/common/ctxkey"
	"github.com/matchops/arena-api/ratelimit"
)

// Limiter is the shared sliding-window limiter, wired in main.
var Limiter *ratelimit.Limiter

// RateLimit enforces the declared quotas for an endpoint under the given
// bucket key. Emergency mode and key-required failures surface here too,
// since both gates live inside Apply.
func RateLimit(bucketKey string, quotas ...ratelimit.Quota) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := Limiter.Apply(c.Request.Context(), Identity(c), bucketKey, quotas)
		if err != nil {
			AbortWithMappedError(c, err)
			return
		}
		if status != nil {
			c.Set(ctxkey.RateLimitStatus, *status)
		}
		c.Next()
	}
}
