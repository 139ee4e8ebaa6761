package model

import (
	"context"
	"time"

	"github.com/Laisky/zap"
	"gorm.io/gorm"

	"github.com/Laisky/errors/v2"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/logger"
)

// ApiKey identifies a client (dashboard, overlay, tooling), not a human.
// A key is valid iff a record exists with a non-true disabled flag.
type ApiKey struct {
	Id        int    `json:"id"`
	Key       string `json:"key" gorm:"uniqueIndex;type:varchar(64);not null"`
	Disabled  *bool  `json:"disabled" gorm:"default:false"`
	Comment   string `json:"comment" gorm:"type:text"`
	CreatedAt int64  `json:"created_at" gorm:"bigint;autoCreateTime"`
}

// Validity lookups are cached for one hour.
var keyValidityCache = cache.New("api_key_validity", time.Hour)

// IsValidApiKey reports whether the normalized key exists and is enabled.
// Database errors degrade to invalid so a metadata-store outage cannot grant
// quota it should not.
func IsValidApiKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	valid, err := cache.GetOrCompute(ctx, keyValidityCache, key, 0, func(ctx context.Context) (bool, error) {
		var record ApiKey
		err := DB.WithContext(ctx).Where("key = ?", key).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "look up api key")
		}
		return record.Disabled == nil || !*record.Disabled, nil
	})
	if err != nil {
		logger.Logger.Warn("api key validation failed", zap.Error(err))
		return false
	}
	return valid
}
