package helper

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP derives the client address from forwarding headers with a fixed
// precedence: CF-Connecting-IP, then X-Real-IP, then the first hop of
// X-Forwarded-For, then the socket peer address.
func ClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
