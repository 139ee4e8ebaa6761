package logger

import (
	"github.com/Laisky/zap"

	"github.com/matchops/arena-api/common/config"
)

// Logger is the process-wide structured logger. Request-scoped logging goes
// through gin-middlewares' per-request logger instead.
var Logger *zap.Logger

func init() {
	var err error
	if config.DebugEnabled {
		Logger, err = zap.NewDevelopment()
	} else {
		Logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
}
