// Package router declares the HTTP surface: the /v1 API group with its
// per-route quota and cache-control declarations, plus metrics and the
// 404 fallback.
package router

import (
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/middleware"
)

// SetRouter installs the global middleware chain and every route group.
func SetRouter(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(gmw.NewLoggerMiddleware(
		gmw.WithLevel(logLevel()),
		gmw.WithLogger(glog.Shared.Named("arena-api")),
	))
	engine.Use(cors.Default())
	engine.Use(middleware.ResolveIdentity())
	engine.Use(middleware.FeatureFlag())

	if config.EnablePrometheusMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	SetApiRouter(engine)

	engine.NoRoute(middleware.NotFoundFallback)
}

func logLevel() string {
	if config.DebugEnabled {
		return glog.LevelDebug.String()
	}
	return glog.LevelInfo.String()
}
