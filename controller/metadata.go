package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/middleware"
)

// GetMatchMetadata handles GET /v1/matches/:match_id/metadata, returning the
// decoded match details as JSON.
func GetMatchMetadata(c *gin.Context) {
	matchID, err := parseMatchID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	contents, err := Resolver.GetMetadata(c.Request.Context(), middleware.Identity(c), matchID)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

// GetMatchMetadataRaw handles GET /v1/matches/:match_id/metadata/raw,
// returning the bzip2-compressed blob as-is.
func GetMatchMetadataRaw(c *gin.Context) {
	matchID, err := parseMatchID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	raw, err := Resolver.GetMetadataRaw(c.Request.Context(), middleware.Identity(c), matchID)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", raw)
}
