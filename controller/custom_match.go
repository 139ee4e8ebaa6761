package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/middleware"
)

// CreateCustomMatch handles POST /v1/custom-matches: a bot opens a party,
// publishes its join code, and parks itself in the spectator slot.
func CreateCustomMatch(c *gin.Context) {
	match, err := Spectator.CreateCustomMatch(c.Request.Context())
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// GetCustomMatchID handles GET /v1/custom-matches/:party_id/match-id: the
// match id the lobby produced, once it started.
func GetCustomMatchID(c *gin.Context) {
	partyID, err := strconv.ParseUint(c.Param("party_id"), 10, 64)
	if err != nil {
		middleware.AbortWithMappedError(c, apierr.BadRequest("invalid party id %q", c.Param("party_id")))
		return
	}

	matchID, err := Spectator.GetCustomMatchID(c.Request.Context(), partyID)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"party_id": partyID, "match_id": matchID})
}
