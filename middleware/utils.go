package middleware

import (
	"net/http"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/errors/v2"

	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/ratelimit"
)

// AbortWithError aborts the request with the JSON error envelope
// {status, error}; the HTTP code always matches the status field.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	logger := gmw.GetLogger(c)
	if statusCode >= 400 && statusCode < 500 {
		logger.Warn("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	} else {
		logger.Error("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	}

	// Error envelopes must not inherit the route's Cache-Control stamp.
	c.Writer.Header().Del("Cache-Control")
	c.JSON(statusCode, gin.H{
		"status": statusCode,
		"error":  err.Error(),
	})
	c.Abort()
}

// AbortWithMappedError translates component errors into their HTTP shape:
// typed apierr errors keep their status, rate-limit denials become 429 with
// the RateLimit-* headers, auth/emergency gates map to 403/503, and
// everything else is an opaque 500.
func AbortWithMappedError(c *gin.Context, err error) {
	var exceeded *ratelimit.ExceededError
	var apiErr *apierr.Error

	switch {
	case errors.As(err, &exceeded):
		for name, values := range exceeded.Status.Headers(time.Now()) {
			for _, v := range values {
				c.Header(name, v)
			}
		}
		AbortWithError(c, http.StatusTooManyRequests, err)

	case errors.As(err, &apiErr):
		for name, values := range apiErr.Headers {
			for _, v := range values {
				c.Header(name, v)
			}
		}
		AbortWithError(c, apiErr.Status, err)

	case errors.Is(err, ratelimit.ErrAuthRequired):
		AbortWithError(c, http.StatusForbidden, err)

	case errors.Is(err, ratelimit.ErrEmergencyMode):
		AbortWithError(c, http.StatusServiceUnavailable, err)

	default:
		gmw.GetLogger(c).Error("unclassified handler error", zap.Error(err))
		AbortWithError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
