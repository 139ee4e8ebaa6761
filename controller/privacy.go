package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/common"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/model"
)

// privacyRequest toggles a player's opt-out state.
type privacyRequest struct {
	Protected *bool `json:"protected" binding:"required"`
}

// SetPlayerPrivacy handles POST /v1/players/:account_id/privacy: the
// internal-only opt-out/opt-in switch. Opting out adds the account to the
// protected set and rewrites the analytics row policy excluding it.
func SetPlayerPrivacy(c *gin.Context) {
	if !middleware.HasInternalKey(c) {
		middleware.AbortWithMappedError(c, apierr.Unauthorized("internal key required"))
		return
	}

	accountID, err := parseAccountID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	var req privacyRequest
	if err := common.UnmarshalBodyReusable(c, &req); err != nil || req.Protected == nil {
		middleware.AbortWithMappedError(c, apierr.BadRequest("body must carry a protected boolean"))
		return
	}

	if err := model.SetProtected(c.Request.Context(), accountID, *req.Protected); err != nil {
		middleware.AbortWithMappedError(c, apierr.Internal(err, "privacy update failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
