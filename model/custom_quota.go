package model

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/matchops/arena-api/cache"
)

// CustomQuota maps (api_key, bucket_key) to a KEY-scope quota override.
// When any rows exist for a pair they replace the handler's declared
// KEY-scope quotas entirely.
type CustomQuota struct {
	Id         int    `json:"id"`
	ApiKey     string `json:"api_key" gorm:"index:idx_custom_quota,priority:1;type:varchar(64);not null"`
	BucketKey  string `json:"bucket_key" gorm:"index:idx_custom_quota,priority:2;type:varchar(128);not null"`
	LimitCount uint32 `json:"limit" gorm:"column:limit_count;not null"`
	PeriodS    int64  `json:"period_s" gorm:"not null"`
	CreatedAt  int64  `json:"created_at" gorm:"bigint;autoCreateTime"`
}

// Lookup results (including empty ones) are cached for ten minutes.
var customQuotaCache = cache.New("custom_quotas", 10*time.Minute)

// GetCustomQuotas returns the quota overrides for (apiKey, bucketKey).
// An empty slice means no override exists and the declared quotas apply.
func GetCustomQuotas(ctx context.Context, apiKey, bucketKey string) ([]CustomQuota, error) {
	cacheKey := fmt.Sprintf("%s:%s", apiKey, bucketKey)
	return cache.GetOrCompute(ctx, customQuotaCache, cacheKey, 0, func(ctx context.Context) ([]CustomQuota, error) {
		var rows []CustomQuota
		err := DB.WithContext(ctx).
			Where("api_key = ? AND bucket_key = ?", apiKey, bucketKey).
			Find(&rows).Error
		if err != nil {
			return nil, errors.Wrap(err, "look up custom quotas")
		}
		return rows, nil
	})
}
