package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/artifact"
	"github.com/matchops/arena-api/common"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/middleware"
)

// saltsResponse is the public projection of a resolved salts row.
type saltsResponse struct {
	MatchID      uint64 `json:"match_id"`
	ClusterID    uint32 `json:"cluster_id"`
	MetadataSalt uint32 `json:"metadata_salt"`
	ReplaySalt   uint32 `json:"replay_salt"`
	MetadataURL  string `json:"metadata_url"`
	DemoURL      string `json:"demo_url,omitempty"`
}

// GetMatchSalts handles GET /v1/matches/:match_id/salts.
func GetMatchSalts(c *gin.Context) {
	matchID, err := parseMatchID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	needsDemo, err := parseBoolQuery(c, "needs_demo", false)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	salts, err := Resolver.GetSalts(c.Request.Context(), middleware.Identity(c), matchID, needsDemo)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	resp := saltsResponse{
		MatchID:      matchID,
		ClusterID:    salts.ClusterID,
		MetadataSalt: salts.MetadataSalt,
		ReplaySalt:   salts.ReplaySalt,
		MetadataURL:  artifact.MetadataURL(salts.ClusterID, matchID, salts.MetadataSalt),
	}
	if salts.HasReplaySalt() {
		resp.DemoURL = artifact.DemoURL(salts.ClusterID, matchID, salts.ReplaySalt)
	}
	c.JSON(http.StatusOK, resp)
}

// IngestSalts handles POST /v1/matches/salts: a batch of user-contributed
// salt rows, HEAD-validated unless the internal key is presented.
func IngestSalts(c *gin.Context) {
	var rows []artifact.IngestRow
	if err := common.UnmarshalBodyReusable(c, &rows); err != nil {
		middleware.AbortWithMappedError(c, apierr.BadRequest("invalid salts payload: %v", err))
		return
	}
	if len(rows) == 0 {
		middleware.AbortWithMappedError(c, apierr.BadRequest("empty salts payload"))
		return
	}

	if err := Resolver.IngestSalts(c.Request.Context(), rows, middleware.HasInternalKey(c)); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
