package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/matchops/arena-api/artifact"
	"github.com/matchops/arena-api/common/blob"
	"github.com/matchops/arena-api/common/client"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/common/logger"
	"github.com/matchops/arena-api/common/rdb"
	"github.com/matchops/arena-api/controller"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/ratelimit"
	"github.com/matchops/arena-api/router"
	"github.com/matchops/arena-api/spectate"
)

func main() {
	_ = godotenv.Load()

	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else if !config.DebugEnabled {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	client.Init()

	if err := rdb.Init(ctx); err != nil {
		logger.Logger.Fatal("init redis", zap.Error(err))
	}
	if err := model.InitDB(); err != nil {
		logger.Logger.Fatal("init databases", zap.Error(err))
	}
	if err := blob.Init(ctx); err != nil {
		logger.Logger.Fatal("init object stores", zap.Error(err))
	}

	middleware.Limiter = ratelimit.New(rdb.RDB)
	proxyClient := proxy.New(config.ProxyURL, config.ProxyAPIToken, client.HTTPClient)
	controller.Proxy = proxyClient
	controller.Resolver = artifact.NewResolver(blob.Cache, blob.Primary, proxyClient, client.HTTPClient, middleware.Limiter)
	controller.Spectator = spectate.New(proxyClient, rdb.RDB, client.StreamingHTTPClient, client.ImpatientHTTPClient)

	if err := middleware.LoadFeatureFlags(config.FeatureFlagsPath); err != nil {
		logger.Logger.Fatal("load feature flags", zap.Error(err))
	}

	engine := gin.New()
	router.SetRouter(engine)

	srv := &http.Server{
		Addr:    ":" + config.ServerPort,
		Handler: engine,
	}

	go func() {
		logger.Logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx,
		time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := model.CloseDB(); err != nil {
		logger.Logger.Error("close databases", zap.Error(err))
	}
	logger.Logger.Info("bye")
}
