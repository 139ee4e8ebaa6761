package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/steamproto"
)

// activeMatchesCache memoizes the coordinator's watch list; a minute matches
// how often the coordinator refreshes it.
var activeMatchesCache = cache.New("active_matches", time.Minute)

// activeMatchEntry is the JSON projection of one watch-list entry.
type activeMatchEntry struct {
	MatchID        uint64 `json:"match_id"`
	StartTime      uint64 `json:"start_time"`
	WinningTeam    int32  `json:"winning_team"`
	NetWorthTeam0  uint32 `json:"net_worth_team_0"`
	NetWorthTeam1  uint32 `json:"net_worth_team_1"`
	SpectatorCount uint32 `json:"spectator_count"`
}

// GetActiveMatches handles GET /v1/matches/active: the coordinator's top-N
// watch list, fetched at most once a minute.
func GetActiveMatches(c *gin.Context) {
	snapshot, err := cache.GetOrCompute(c.Request.Context(), activeMatchesCache, "active", 0,
		func(ctx context.Context) (*steamproto.ActiveMatchesSnapshot, error) {
			var resp *proxy.Response
			err := proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
				var callErr error
				resp, callErr = Proxy.CallRaw(ctx, proxy.Request{
					MsgType:        steamproto.KindGetActiveMatches,
					Msg:            &steamproto.GetActiveMatchesRequest{},
					Cooldown:       time.Minute,
					RequestTimeout: 5 * time.Second,
				})
				return callErr
			})
			if err != nil {
				return nil, err
			}
			return steamproto.DecodeActiveMatchesFrame(resp.Data)
		})
	if err != nil {
		middleware.AbortWithMappedError(c, apierr.Internal(err, "active matches fetch failed"))
		return
	}

	entries := make([]activeMatchEntry, 0, len(snapshot.Matches))
	for _, m := range snapshot.Matches {
		entries = append(entries, activeMatchEntry{
			MatchID:        m.MatchID,
			StartTime:      m.StartTime,
			WinningTeam:    m.WinningTeam,
			NetWorthTeam0:  m.NetWorthTeam0,
			NetWorthTeam1:  m.NetWorthTeam1,
			SpectatorCount: m.SpectatorCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"matches": entries})
}
