// Package controller holds the HTTP endpoint handlers. Handlers parse
// parameters, consult the caching and resolution layers, and shape
// responses; the heavy lifting lives in the component packages.
package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/artifact"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/spectate"
)

var (
	// Resolver is the match-artifact pipeline, wired in main.
	Resolver *artifact.Resolver
	// Spectator drives live-demo sessions and custom matches, wired in main.
	Spectator *spectate.Engine
	// Proxy is the shared coordinator-proxy client, wired in main.
	Proxy *proxy.Client
)

// parseMatchID reads the :match_id path parameter.
func parseMatchID(c *gin.Context) (uint64, error) {
	raw := c.Param("match_id")
	matchID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apierr.BadRequest("invalid match id %q", raw)
	}
	return matchID, nil
}

// parseBoolQuery reads a boolean query parameter, defaulting when absent.
func parseBoolQuery(c *gin.Context, name string, def bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apierr.BadRequest("invalid boolean %q for %s", raw, name)
	}
	return v, nil
}
