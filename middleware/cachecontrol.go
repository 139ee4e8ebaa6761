package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheControlOptions shape the Cache-Control header stamped on successful
// responses.
type CacheControlOptions struct {
	MaxAgeS               int
	StaleWhileRevalidateS int
	StaleIfErrorS         int
}

// CacheControl stamps responses with the configured max-age and optional
// staleness directives. The header must be in place before the handler
// writes its body; gin flushes headers on the first body write. Error
// responses written through AbortWithError strip it again.
func CacheControl(opt CacheControlOptions) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", opt.MaxAgeS)
	if opt.StaleWhileRevalidateS > 0 {
		value += fmt.Sprintf(", stale-while-revalidate=%d", opt.StaleWhileRevalidateS)
	}
	if opt.StaleIfErrorS > 0 {
		value += fmt.Sprintf(", stale-if-error=%d", opt.StaleIfErrorS)
	}

	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NotFoundFallback answers unmatched routes with the attempted URI in the
// standard envelope.
func NotFoundFallback(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"status": http.StatusNotFound,
		"error":  fmt.Sprintf("no route for %s", c.Request.URL.RequestURI()),
	})
}
