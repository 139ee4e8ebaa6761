package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/model"
)

// analyticsCache memoizes aggregate query results. The underlying data only
// grows, so an hour of staleness is acceptable for every aggregate family.
var analyticsCache = cache.New("analytics", time.Hour)

// parseAnalyticsFilters reads the shared filter query parameters.
func parseAnalyticsFilters(c *gin.Context) (model.AnalyticsFilters, error) {
	var f model.AnalyticsFilters

	if raw := c.Query("min_unix_timestamp"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apierr.BadRequest("invalid min_unix_timestamp %q", raw)
		}
		f.MinUnixTimestamp = &v
	}
	if raw := c.Query("max_unix_timestamp"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apierr.BadRequest("invalid max_unix_timestamp %q", raw)
		}
		f.MaxUnixTimestamp = &v
	}
	if raw := c.Query("min_duration_s"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return f, apierr.BadRequest("invalid min_duration_s %q", raw)
		}
		d := uint32(v)
		f.MinDurationS = &d
	}
	if raw := c.Query("max_duration_s"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return f, apierr.BadRequest("invalid max_duration_s %q", raw)
		}
		d := uint32(v)
		f.MaxDurationS = &d
	}
	if raw := c.Query("min_matches"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, apierr.BadRequest("invalid min_matches %q", raw)
		}
		f.MinMatches = &v
	}

	return f, nil
}

// serveAnalytics runs one aggregate family behind the shared result cache,
// keyed by the full request URI so every filter combination gets its own slot.
func serveAnalytics[R any](c *gin.Context, query func(context.Context, model.AnalyticsFilters) ([]R, error)) {
	f, err := parseAnalyticsFilters(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	rows, err := cache.GetOrCompute(c.Request.Context(), analyticsCache, c.Request.URL.RequestURI(), 0,
		func(ctx context.Context) ([]R, error) {
			return query(ctx, f)
		})
	if err != nil {
		middleware.AbortWithMappedError(c, apierr.Internal(err, "analytics query failed"))
		return
	}
	if rows == nil {
		rows = []R{}
	}
	c.JSON(http.StatusOK, rows)
}

// GetHeroStats handles GET /v1/analytics/hero-stats.
func GetHeroStats(c *gin.Context) {
	serveAnalytics(c, model.GetHeroStats)
}

// GetHeroWinLossStats handles GET /v1/analytics/hero-win-loss-stats, the
// older aggregate family kept for existing consumers.
func GetHeroWinLossStats(c *gin.Context) {
	serveAnalytics(c, model.GetHeroWinLossStats)
}

// GetKillDeathStats handles GET /v1/analytics/kill-death-stats.
func GetKillDeathStats(c *gin.Context) {
	serveAnalytics(c, model.GetKillDeathStats)
}

// GetBadgeDistribution handles GET /v1/analytics/badge-distribution.
func GetBadgeDistribution(c *gin.Context) {
	serveAnalytics(c, model.GetBadgeDistribution)
}
