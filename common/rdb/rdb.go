package rdb

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/go-redis/redis/v8"

	"github.com/matchops/arena-api/common/config"
)

// RDB is the shared Redis client backing rate-limit timelines and the
// custom-match party keys.
var RDB *redis.Client

// Init connects to the configured Redis instance and verifies it responds.
func Init(ctx context.Context) error {
	opt, err := redis.ParseURL(config.RedisConnString)
	if err != nil {
		return errors.Wrap(err, "parse REDIS_URL")
	}
	RDB = redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := RDB.Ping(pingCtx).Err(); err != nil {
		return errors.Wrap(err, "ping redis")
	}
	return nil
}
