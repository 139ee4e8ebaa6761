package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchSalts holds the triple needed to compose a match's replay-asset URLs
// on the upstream CDN. Rows are write-once by ingest, read-many.
type MatchSalts struct {
	MatchID           uint64  `json:"match_id" gorm:"primaryKey"`
	ClusterID         uint32  `json:"cluster_id"`
	MetadataSalt      uint32  `json:"metadata_salt"`
	ReplaySalt        uint32  `json:"replay_salt"`
	IngestingUsername *string `json:"-" gorm:"type:varchar(64)"`
	CreatedAt         int64   `json:"-" gorm:"bigint;autoCreateTime"`
}

// TableName keeps the analytics-store naming convention.
func (MatchSalts) TableName() string { return "match_salts" }

// HasMetadataSalt reports whether the row can compose a metadata URL.
func (s *MatchSalts) HasMetadataSalt() bool {
	return s != nil && s.ClusterID > 0 && s.MetadataSalt != 0
}

// HasReplaySalt reports whether the row can compose a demo URL.
func (s *MatchSalts) HasReplaySalt() bool {
	return s != nil && s.ClusterID > 0 && s.ReplaySalt != 0
}

// GetMatchSalts fetches the salts row for a match; (nil, nil) when absent.
func GetMatchSalts(ctx context.Context, matchID uint64) (*MatchSalts, error) {
	var row MatchSalts
	err := AnalyticsDB.WithContext(ctx).Where("match_id = ?", matchID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get salts for match %d", matchID)
	}
	return &row, nil
}

// InsertMatchSalts appends salts rows. Existing rows win: salts are
// write-once and conflicting inserts are dropped.
func InsertMatchSalts(ctx context.Context, rows []MatchSalts) error {
	if len(rows) == 0 {
		return nil
	}
	err := AnalyticsDB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	return errors.Wrap(err, "insert match salts")
}

// HasMatchMetadata reports whether the analytics store already ingested the
// match. When metadata exists but salts do not, the salts are permanently
// unavailable and the coordinator proxy must not be consulted.
func HasMatchMetadata(ctx context.Context, matchID uint64) (bool, error) {
	var count int64
	err := AnalyticsDB.WithContext(ctx).
		Table("match_info").
		Where("match_id = ?", matchID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "check match_info for match %d", matchID)
	}
	return count > 0, nil
}

// LatestMatchIDBefore returns the most recent match id whose start time is at
// least the given age old. Used as the liveness watermark: anything at or
// before it is provably not live.
func LatestMatchIDBefore(ctx context.Context, ageSeconds int64) (uint64, error) {
	var matchID uint64
	err := AnalyticsDB.WithContext(ctx).
		Table("match_info").
		Select("max(match_id)").
		Where("start_time < now() - ?", ageSeconds).
		Scan(&matchID).Error
	if err != nil {
		return 0, errors.Wrap(err, "query liveness watermark")
	}
	return matchID, nil
}
