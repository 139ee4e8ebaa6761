package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
)

// AnalyticsFilters narrow an aggregate query. Nil means unconstrained.
type AnalyticsFilters struct {
	MinUnixTimestamp *int64
	MaxUnixTimestamp *int64
	MinDurationS     *uint32
	MaxDurationS     *uint32
	MinMatches       *uint64
}

// timeFilters applies the timestamp bounds shared by every builder.
func (f AnalyticsFilters) timeFilters(q *gorm.DB) *gorm.DB {
	if f.MinUnixTimestamp != nil {
		q = q.Where("start_time >= ?", *f.MinUnixTimestamp)
	}
	if f.MaxUnixTimestamp != nil {
		q = q.Where("start_time <= ?", *f.MaxUnixTimestamp)
	}
	return q
}

// durationFilters applies both duration bounds.
func (f AnalyticsFilters) durationFilters(q *gorm.DB) *gorm.DB {
	if f.MinDurationS != nil {
		q = q.Where("duration_s >= ?", *f.MinDurationS)
	}
	if f.MaxDurationS != nil {
		q = q.Where("duration_s <= ?", *f.MaxDurationS)
	}
	return q
}

// HeroStatsRow is one hero's aggregate line.
type HeroStatsRow struct {
	HeroID       uint32  `json:"hero_id"`
	Matches      uint64  `json:"matches"`
	Wins         uint64  `json:"wins"`
	Losses       uint64  `json:"losses"`
	TotalKills   uint64  `json:"total_kills"`
	TotalDeaths  uint64  `json:"total_deaths"`
	TotalAssists uint64  `json:"total_assists"`
	AvgNetWorth  float64 `json:"avg_net_worth"`
	AvgKills     float64 `json:"avg_kills"`
	AvgDeaths    float64 `json:"avg_deaths"`
	AvgAssists   float64 `json:"avg_assists"`
}

// GetHeroStats aggregates per-hero performance over match_player. The
// min_matches floor applies here but not to the older win-loss family.
func GetHeroStats(ctx context.Context, f AnalyticsFilters) ([]HeroStatsRow, error) {
	q := AnalyticsDB.WithContext(ctx).
		Table("match_player").
		Select(`hero_id,
			count() AS matches,
			countIf(won) AS wins,
			countIf(NOT won) AS losses,
			sum(kills) AS total_kills,
			sum(deaths) AS total_deaths,
			sum(assists) AS total_assists,
			avg(net_worth) AS avg_net_worth,
			avg(kills) AS avg_kills,
			avg(deaths) AS avg_deaths,
			avg(assists) AS avg_assists`).
		Group("hero_id").
		Order("hero_id")
	q = f.timeFilters(q)
	q = f.durationFilters(q)
	if f.MinMatches != nil {
		q = q.Having("count() >= ?", *f.MinMatches)
	}

	var rows []HeroStatsRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "hero stats query")
	}
	return rows, nil
}

// HeroWinLossRow is one hero's line in the older win-loss family.
type HeroWinLossRow struct {
	HeroID uint32 `json:"hero_id"`
	Wins   uint64 `json:"wins"`
	Losses uint64 `json:"losses"`
}

// GetHeroWinLossStats is the older aggregate family: wins and losses only,
// no match-count floor.
func GetHeroWinLossStats(ctx context.Context, f AnalyticsFilters) ([]HeroWinLossRow, error) {
	q := AnalyticsDB.WithContext(ctx).
		Table("match_player").
		Select("hero_id, countIf(won) AS wins, countIf(NOT won) AS losses").
		Group("hero_id").
		Order("hero_id")
	q = f.timeFilters(q)
	q = f.durationFilters(q)

	var rows []HeroWinLossRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "hero win-loss query")
	}
	return rows, nil
}

// KillDeathRow is one hero's kill/death aggregate.
type KillDeathRow struct {
	HeroID    uint32  `json:"hero_id"`
	Matches   uint64  `json:"matches"`
	AvgKills  float64 `json:"avg_kills"`
	AvgDeaths float64 `json:"avg_deaths"`
	KDRatio   float64 `json:"kd_ratio"`
}

// GetKillDeathStats aggregates kills and deaths per hero. Note: only the
// max_duration_s bound is applied here; min_duration_s has never been part
// of this builder's filter set.
// TODO: decide whether min_duration_s should be honored and migrate callers.
func GetKillDeathStats(ctx context.Context, f AnalyticsFilters) ([]KillDeathRow, error) {
	q := AnalyticsDB.WithContext(ctx).
		Table("match_player").
		Select(`hero_id,
			count() AS matches,
			avg(kills) AS avg_kills,
			avg(deaths) AS avg_deaths,
			sum(kills) / greatest(sum(deaths), 1) AS kd_ratio`).
		Group("hero_id").
		Order("hero_id")
	q = f.timeFilters(q)
	if f.MaxDurationS != nil {
		q = q.Where("duration_s <= ?", *f.MaxDurationS)
	}

	var rows []KillDeathRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "kill-death stats query")
	}
	return rows, nil
}

// BadgeDistributionRow is one rank badge's population count.
type BadgeDistributionRow struct {
	BadgeLevel uint32 `json:"badge_level"`
	Tier       uint32 `json:"tier"`
	Subtier    uint32 `json:"subtier"`
	Players    uint64 `json:"players"`
}

// GetBadgeDistribution counts distinct players per rank badge.
func GetBadgeDistribution(ctx context.Context, f AnalyticsFilters) ([]BadgeDistributionRow, error) {
	q := AnalyticsDB.WithContext(ctx).
		Table("match_player").
		Select("ranked_badge_level AS badge_level, uniqExact(account_id) AS players").
		Group("ranked_badge_level").
		Order("ranked_badge_level")
	q = f.timeFilters(q)

	var rows []BadgeDistributionRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "badge distribution query")
	}
	for i := range rows {
		rows[i].Tier = rows[i].BadgeLevel / 10
		rows[i].Subtier = rows[i].BadgeLevel % 10
	}
	return rows, nil
}
