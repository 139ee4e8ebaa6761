package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/common/rdb"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/model"
)

// infoCache keeps backend liveness probes off the hot path.
var infoCache = cache.New("info", time.Minute)

// infoResponse is the service's self-description.
type infoResponse struct {
	Version       string `json:"version"`
	EmergencyMode bool   `json:"emergency_mode"`
	KVAlive       bool   `json:"kv_alive"`
	StoresAlive   bool   `json:"stores_alive"`
}

// GetInfo handles GET /v1/info/: build info plus backend liveness, cached a
// minute so probes cannot hammer the backends.
func GetInfo(c *gin.Context) {
	info, err := cache.GetOrCompute(c.Request.Context(), infoCache, "info", 0,
		func(ctx context.Context) (*infoResponse, error) {
			probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()

			return &infoResponse{
				Version:       config.Version,
				EmergencyMode: config.EmergencyMode,
				KVAlive:       rdb.RDB.Ping(probeCtx).Err() == nil,
				StoresAlive:   model.Ping(probeCtx) == nil,
			}, nil
		})
	if err != nil {
		middleware.AbortWithMappedError(c, apierr.Internal(err, "info probe failed"))
		return
	}
	c.JSON(http.StatusOK, info)
}
