package middleware

import (
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/common/ctxkey"
	"github.com/matchops/arena-api/common/helper"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/ratelimit"
)

// ResolveIdentity derives the client identity once per request: the
// forwarding-header IP and, when presented and valid, the API key. Invalid
// keys are treated as absent. Keys arrive in the X-API-Key header or the
// api_key query parameter.
func ResolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxkey.ClientIP, helper.ClientIP(c))

		raw := c.GetHeader("X-API-Key")
		if raw == "" {
			raw = c.Query("api_key")
		}
		if raw != "" {
			if key, ok := helper.NormalizeAPIKey(raw); ok && model.IsValidApiKey(c.Request.Context(), key) {
				c.Set(ctxkey.ApiKey, key)
			} else {
				gmw.GetLogger(c).Debug("ignoring invalid api key",
					zap.String("key", helper.MaskAPIKey(raw)))
			}
		}
		c.Next()
	}
}

// Identity assembles the rate-limit identity from context.
func Identity(c *gin.Context) ratelimit.Identity {
	return ratelimit.Identity{
		IP:     c.GetString(ctxkey.ClientIP),
		APIKey: c.GetString(ctxkey.ApiKey),
	}
}

// HasInternalKey reports whether the request bears the internal shared
// secret, unlocking trusted endpoints.
func HasInternalKey(c *gin.Context) bool {
	if config.InternalAPIKey == "" {
		return false
	}
	return c.GetHeader("X-Internal-Key") == config.InternalAPIKey
}
