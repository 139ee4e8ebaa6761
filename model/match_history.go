package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm/clause"
)

// PlayerMatchHistory is one row of a player's stored match history in the
// analytics store.
type PlayerMatchHistory struct {
	AccountID      uint32 `json:"account_id" gorm:"primaryKey"`
	MatchID        uint64 `json:"match_id" gorm:"primaryKey"`
	HeroID         uint32 `json:"hero_id"`
	MatchResult    uint32 `json:"match_result"`
	PlayerTeam     uint32 `json:"player_team"`
	PlayerKills    uint32 `json:"player_kills"`
	PlayerDeaths   uint32 `json:"player_deaths"`
	PlayerAssists  uint32 `json:"player_assists"`
	NetWorth       uint32 `json:"net_worth"`
	MatchDurationS uint32 `json:"match_duration_s"`
	StartTime      int64  `json:"start_time"`
}

// TableName keeps the analytics-store naming convention.
func (PlayerMatchHistory) TableName() string { return "player_match_history" }

// GetPlayerMatchHistory returns the stored history for an account, newest
// first.
func GetPlayerMatchHistory(ctx context.Context, accountID uint32) ([]PlayerMatchHistory, error) {
	var rows []PlayerMatchHistory
	err := AnalyticsDB.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("match_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get match history for account %d", accountID)
	}
	return rows, nil
}

// InsertPlayerMatchHistory appends newly observed history rows. This is a
// non-fatal enrichment: callers log and continue on failure.
func InsertPlayerMatchHistory(ctx context.Context, rows []PlayerMatchHistory) error {
	if len(rows) == 0 {
		return nil
	}
	err := AnalyticsDB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	return errors.Wrap(err, "insert player match history")
}
