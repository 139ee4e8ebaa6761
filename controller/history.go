package controller

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/helper"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/steamproto"
)

// historyFetchCache coalesces coordinator history fetches per account.
var historyFetchCache = cache.New("history_fetch", time.Minute)

// parseAccountID reads the :account_id path parameter, accepting SteamID3 or
// SteamID64 forms.
func parseAccountID(c *gin.Context) (uint32, error) {
	accountID, err := helper.ParseAccountID(c.Param("account_id"))
	if err != nil {
		return 0, apierr.BadRequest("invalid account id %q", c.Param("account_id"))
	}
	return accountID, nil
}

// GetMatchHistory handles GET /v1/players/:account_id/match-history: stored
// history merged with the coordinator's recent matches. only_stored_history
// skips the coordinator entirely; force_refetch skips the fetch cache.
// Asking for both at once is contradictory and rejected.
func GetMatchHistory(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	forceRefetch, err := parseBoolQuery(c, "force_refetch", false)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	onlyStored, err := parseBoolQuery(c, "only_stored_history", false)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	if forceRefetch && onlyStored {
		middleware.AbortWithMappedError(c,
			apierr.BadRequest("force_refetch and only_stored_history are mutually exclusive"))
		return
	}

	ctx := c.Request.Context()
	protected, err := model.IsProtected(ctx, accountID)
	if err != nil {
		middleware.AbortWithMappedError(c, apierr.Internal(err, "protected-user lookup failed"))
		return
	}
	if protected {
		middleware.AbortWithMappedError(c, apierr.Forbidden("protected user"))
		return
	}

	stored, err := model.GetPlayerMatchHistory(ctx, accountID)
	if err != nil {
		middleware.AbortWithMappedError(c, apierr.Internal(err, "stored history lookup failed"))
		return
	}
	if onlyStored {
		c.JSON(http.StatusOK, historyResponse(stored))
		return
	}

	fetched, err := fetchMatchHistory(ctx, accountID, forceRefetch)
	if err != nil {
		// The stored subset still answers the request unless the caller
		// insisted on a fresh fetch.
		if forceRefetch || len(stored) == 0 {
			middleware.AbortWithMappedError(c, apierr.Internal(err, "history fetch failed"))
			return
		}
		gmw.GetLogger(c).Warn("history fetch failed, serving stored subset",
			zap.Uint32("account_id", accountID), zap.Error(err))
		c.JSON(http.StatusOK, historyResponse(stored))
		return
	}

	merged, fresh := mergeHistory(stored, fetched)
	if err := model.InsertPlayerMatchHistory(ctx, fresh); err != nil {
		gmw.GetLogger(c).Warn("failed to persist fetched history rows",
			zap.Uint32("account_id", accountID), zap.Error(err))
	}
	c.JSON(http.StatusOK, historyResponse(merged))
}

// fetchMatchHistory asks the coordinator for the player's recent matches.
// Fetches are cached per account for a minute; force drops the cached slot
// first so the fetch hits the coordinator.
func fetchMatchHistory(ctx context.Context, accountID uint32, force bool) ([]model.PlayerMatchHistory, error) {
	cacheKey := fmt.Sprintf("history:%d", accountID)
	if force {
		historyFetchCache.Forget(cacheKey)
	}

	return cache.GetOrCompute(ctx, historyFetchCache, cacheKey, 0, func(ctx context.Context) ([]model.PlayerMatchHistory, error) {
		var resp steamproto.GetMatchHistoryResponse
		err := proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
			_, callErr := Proxy.Call(ctx, proxy.Request{
				MsgType:        steamproto.KindGetMatchHistory,
				Msg:            &steamproto.GetMatchHistoryRequest{AccountID: accountID},
				Cooldown:       10 * time.Second,
				RequestTimeout: 2 * time.Second,
			}, &resp)
			return callErr
		})
		if err != nil {
			return nil, err
		}
		if resp.Result != steamproto.ResultSuccess {
			return nil, apierr.NotFound("coordinator has no history for account %d", accountID)
		}

		rows := make([]model.PlayerMatchHistory, 0, len(resp.Matches))
		for _, entry := range resp.Matches {
			rows = append(rows, model.PlayerMatchHistory{
				AccountID:      accountID,
				MatchID:        entry.MatchID,
				HeroID:         entry.HeroID,
				MatchResult:    entry.MatchResult,
				PlayerTeam:     entry.PlayerTeam,
				PlayerKills:    entry.PlayerKills,
				PlayerDeaths:   entry.PlayerDeaths,
				PlayerAssists:  entry.PlayerAssists,
				NetWorth:       entry.NetWorth,
				MatchDurationS: entry.MatchDurationS,
				StartTime:      int64(entry.StartTime),
			})
		}
		return rows, nil
	})
}

// historyResponse is the stable JSON shape regardless of merge source.
func historyResponse(rows []model.PlayerMatchHistory) gin.H {
	if rows == nil {
		rows = []model.PlayerMatchHistory{}
	}
	return gin.H{"matches": rows}
}

// mergeHistory combines stored and fetched rows, newest first, and returns
// the fetched rows not yet stored.
func mergeHistory(stored, fetched []model.PlayerMatchHistory) (merged, fresh []model.PlayerMatchHistory) {
	seen := make(map[uint64]struct{}, len(stored))
	merged = append(merged, stored...)
	for _, row := range stored {
		seen[row.MatchID] = struct{}{}
	}
	for _, row := range fetched {
		if _, ok := seen[row.MatchID]; ok {
			continue
		}
		seen[row.MatchID] = struct{}{}
		merged = append(merged, row)
		fresh = append(fresh, row)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].MatchID > merged[j].MatchID })
	return merged, fresh
}
