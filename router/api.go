package router

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/controller"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/ratelimit"
)

// SetApiRouter declares the /v1 surface. Streaming routes skip gzip so
// chunks and SSE frames flush as they are produced.
func SetApiRouter(engine *gin.Engine) {
	v1 := engine.Group("/v1")

	info := v1.Group("/info")
	info.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		info.GET("/",
			middleware.RateLimit("info", ratelimit.PerIP(60, time.Minute)),
			middleware.CacheControl(middleware.CacheControlOptions{MaxAgeS: 60}),
			controller.GetInfo)
	}

	matches := v1.Group("/matches")
	{
		matches.GET("/active",
			middleware.RateLimit("active_matches", ratelimit.PerIP(60, time.Minute)),
			middleware.CacheControl(middleware.CacheControlOptions{MaxAgeS: 60}),
			gzip.Gzip(gzip.DefaultCompression),
			controller.GetActiveMatches)

		matches.POST("/salts",
			middleware.RateLimit("salts_ingest",
				ratelimit.PerIP(10, time.Minute),
				ratelimit.Global(100, time.Minute)),
			controller.IngestSalts)

		// The salts and metadata routes carry their own resolver-side
		// buckets; the route-level quota is a cheap outer guard.
		matches.GET("/:match_id/salts",
			middleware.RateLimit("matches", ratelimit.PerIP(100, 10*time.Second)),
			middleware.CacheControl(middleware.CacheControlOptions{
				MaxAgeS:               3600,
				StaleWhileRevalidateS: 3600,
				StaleIfErrorS:         3600,
			}),
			gzip.Gzip(gzip.DefaultCompression),
			controller.GetMatchSalts)

		matches.GET("/:match_id/metadata",
			middleware.RateLimit("matches", ratelimit.PerIP(100, 10*time.Second)),
			middleware.CacheControl(middleware.CacheControlOptions{
				MaxAgeS:               3600,
				StaleWhileRevalidateS: 3600,
			}),
			gzip.Gzip(gzip.DefaultCompression),
			controller.GetMatchMetadata)

		matches.GET("/:match_id/metadata/raw",
			middleware.RateLimit("matches", ratelimit.PerIP(100, 10*time.Second)),
			middleware.CacheControl(middleware.CacheControlOptions{MaxAgeS: 3600}),
			controller.GetMatchMetadataRaw)

		matches.GET("/:match_id/demo/live",
			middleware.RateLimit("spectate",
				ratelimit.PerIP(10, time.Minute),
				ratelimit.Global(100, time.Minute)),
			controller.LiveDemoStream)

		matches.GET("/:match_id/demo/events",
			middleware.RateLimit("spectate",
				ratelimit.PerIP(10, time.Minute),
				ratelimit.Global(100, time.Minute)),
			controller.LiveDemoEvents)
	}

	players := v1.Group("/players")
	players.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		players.GET("/:account_id/match-history",
			middleware.RateLimit("match_history",
				ratelimit.PerIP(60, time.Minute),
				ratelimit.PerKey(600, time.Minute)),
			middleware.CacheControl(middleware.CacheControlOptions{MaxAgeS: 60}),
			controller.GetMatchHistory)

		players.POST("/:account_id/privacy", controller.SetPlayerPrivacy)
	}

	analytics := v1.Group("/analytics")
	analytics.Use(gzip.Gzip(gzip.DefaultCompression))
	analytics.Use(middleware.RateLimit("analytics",
		ratelimit.PerIP(100, 10*time.Second),
		ratelimit.Global(1000, time.Second)))
	analytics.Use(middleware.CacheControl(middleware.CacheControlOptions{
		MaxAgeS:               3600,
		StaleWhileRevalidateS: 3600,
		StaleIfErrorS:         3600,
	}))
	{
		analytics.GET("/hero-stats", controller.GetHeroStats)
		analytics.GET("/hero-win-loss-stats", controller.GetHeroWinLossStats)
		analytics.GET("/kill-death-stats", controller.GetKillDeathStats)
		analytics.GET("/badge-distribution", controller.GetBadgeDistribution)
	}

	custom := v1.Group("/custom-matches")
	custom.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		custom.POST("",
			middleware.RateLimit("custom_match",
				ratelimit.PerIP(2, time.Minute),
				ratelimit.Global(10, time.Minute)),
			controller.CreateCustomMatch)

		custom.GET("/:party_id/match-id",
			middleware.RateLimit("custom_match_poll", ratelimit.PerIP(60, time.Minute)),
			controller.GetCustomMatchID)
	}
}
